package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/naveenspark/tempo/pkg/domain"
)

// Demo account seeded into every local database.
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "password"
	DemoName     = "Demo User"
)

var demoProjects = []domain.ProjectCreate{
	{Name: "Website Redesign", Description: "Company website refresh", Color: "#3b82f6"},
	{Name: "Mobile App", Description: "iOS and Android client", Color: "#10b981"},
}

// Local is the offline backend. It keeps users, sessions, projects and time
// entries in a SQLite file and answers every operation the REST API does.
type Local struct {
	db   *sql.DB
	now  func() time.Time
	log  zerolog.Logger
	cost int
}

// LocalOption configures a Local backend.
type LocalOption func(*Local)

// WithClock overrides the time source.
func WithClock(now func() time.Time) LocalOption {
	return func(l *Local) { l.now = now }
}

// WithHashCost sets the bcrypt cost for stored passwords.
func WithHashCost(cost int) LocalOption {
	return func(l *Local) { l.cost = cost }
}

// OpenLocal opens the database at path, applies the schema and seeds the demo
// account.
func OpenLocal(ctx context.Context, path string, log zerolog.Logger, opts ...LocalOption) (*Local, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("backend.OpenLocal: %w", err)
	}
	l := &Local{db: db, now: time.Now, log: log.With().Str("component", "local_backend").Logger(), cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(l)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("backend.OpenLocal: %w", err)
	}
	if err := l.seed(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("backend.OpenLocal: %w", err)
	}
	return l, nil
}

// Close closes the database.
func (l *Local) Close() error {
	return l.db.Close()
}

func (l *Local) Name() string { return "local" }

func (l *Local) seed(ctx context.Context) error {
	if _, err := l.userByEmail(ctx, DemoEmail); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	u, err := l.createUser(ctx, uuid.NewString(), DemoEmail, DemoName, DemoPassword)
	if err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}
	for _, p := range demoProjects {
		if _, err := l.insertProject(ctx, u.ID, p); err != nil {
			return fmt.Errorf("seed demo project: %w", err)
		}
	}
	l.log.Debug().Str("user_id", u.ID).Msg("seeded demo account")
	return nil
}

// --- auth ---

// Login verifies the credentials against the stored hash. Unknown emails are
// provisioned on the spot so a first offline login always succeeds.
func (l *Local) Login(ctx context.Context, email, password string) (*domain.AuthToken, error) {
	const op = "login"
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, reject(op, http.StatusUnprocessableEntity, "Email and password are required")
	}

	u, err := l.userByEmail(ctx, email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		u, err = l.createUser(ctx, uuid.NewString(), email, nameFromEmail(email), password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		l.log.Info().Str("email", email).Msg("provisioned offline account")
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	default:
		if bcrypt.CompareHashAndPassword([]byte(u.hash), []byte(password)) != nil {
			return nil, reject(op, http.StatusUnauthorized, "Incorrect email or password")
		}
	}

	token := LocalTokenPrefix + uuid.NewString()
	if err := l.insertSession(ctx, token, u.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user := u.User
	return &domain.AuthToken{AccessToken: token, TokenType: "bearer", User: &user}, nil
}

// Register creates an account. It never issues a token.
func (l *Local) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Registration, error) {
	const op = "register"
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, reject(op, http.StatusUnprocessableEntity, "Email and password are required")
	}
	if _, err := l.userByEmail(ctx, email); err == nil {
		return nil, reject(op, http.StatusBadRequest, "Email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = nameFromEmail(email)
	}
	u, err := l.createUser(ctx, uuid.NewString(), email, name, req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &domain.Registration{User: u.User}, nil
}

// Remember records a remotely issued session so the same credentials work
// offline later and the remote token resolves to a local user.
func (l *Local) Remember(ctx context.Context, token string, u domain.User, password string) error {
	email := normalizeEmail(u.Email)
	if token == "" || email == "" {
		return errors.New("backend.Remember: token and email are required")
	}

	existing, err := l.userByEmail(ctx, email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id := u.ID
		if id == "" {
			id = uuid.NewString()
		}
		existing, err = l.createUser(ctx, id, email, u.Name, password)
		if err != nil {
			return fmt.Errorf("backend.Remember: %w", err)
		}
	case err != nil:
		return fmt.Errorf("backend.Remember: %w", err)
	default:
		if password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
			if err != nil {
				return fmt.Errorf("backend.Remember: hash: %w", err)
			}
			if _, err := l.db.ExecContext(ctx,
				`UPDATE users SET name = ?, password_hash = ? WHERE id = ?`,
				u.Name, string(hash), existing.ID); err != nil {
				return fmt.Errorf("backend.Remember: %w", err)
			}
		}
	}

	if err := l.insertSession(ctx, token, existing.ID); err != nil {
		return fmt.Errorf("backend.Remember: %w", err)
	}
	return nil
}

func (l *Local) Me(ctx context.Context, token string) (*domain.User, error) {
	u, err := l.authenticate(ctx, "me", token)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// --- projects ---

func (l *Local) ListProjects(ctx context.Context, token string) ([]domain.Project, error) {
	const op = "list projects"
	u, err := l.authenticate(ctx, op, token)
	if err != nil {
		return nil, err
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = ? ORDER BY created_at, name`, u.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close() //nolint:errcheck

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (l *Local) CreateProject(ctx context.Context, token string, req domain.ProjectCreate) (*domain.Project, error) {
	const op = "create project"
	u, err := l.authenticate(ctx, op, token)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, reject(op, http.StatusUnprocessableEntity, "Project name is required")
	}
	p, err := l.insertProject(ctx, u.ID, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

func (l *Local) UpdateProject(ctx context.Context, token, id string, req domain.ProjectUpdate) (*domain.Project, error) {
	const op = "update project"
	u, err := l.authenticate(ctx, op, token)
	if err != nil {
		return nil, err
	}
	p, err := l.projectByID(ctx, u.ID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reject(op, http.StatusNotFound, "Project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, reject(op, http.StatusUnprocessableEntity, "Project name is required")
	}

	p = req.Apply(p)
	p.UpdatedAt = l.now().UTC()
	if _, err := l.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, color = ?, is_archived = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		p.Name, p.Description, p.Color, p.IsArchived, formatTime(p.UpdatedAt), p.ID, u.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// DeleteProject removes the project and detaches its entries.
func (l *Local) DeleteProject(ctx context.Context, token, id string) error {
	const op = "delete project"
	u, err := l.authenticate(ctx, op, token)
	if err != nil {
		return err
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ? AND user_id = ?`, id, u.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return reject(op, http.StatusNotFound, "Project not found")
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE time_entries SET project_id = NULL WHERE project_id = ? AND user_id = ?`, id, u.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return tx.Commit()
}

// --- timer ---

func (l *Local) StartTimer(ctx context.Context, token string, req domain.TimerStart) (*domain.TimeEntry, error) {
	const op = "start timer"
	u, err := l.authenticate(ctx, op, token)
	if err != nil {
		return nil, err
	}
	if _, err := l.runningEntry(ctx, u.ID); err == nil {
		return nil, reject(op, http.StatusBadRequest, "You already have a running timer")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := l.now().UTC()
	e := domain.TimeEntry{
		ID:          uuid.NewString(),
		Description: req.Description,
		StartTime:   now,
		ProjectID:   req.ProjectID,
		Tags:        domain.NormalizeTags(req.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
		UserID:      u.ID,
	}
	if err := l.insertEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &e, nil
}

// StopTimer completes the running entry. When the timer was started against
// another backend there is no running row; the entry is recorded from
// running instead.
func (l *Local) StopTimer(ctx context.Context, token string, running domain.TimeEntry) (*domain.TimeEntry, error) {
	const op = "stop timer"
	u, err := l.authenticate(ctx, op, token)
	if err != nil {
		return nil, err
	}

	now := l.now().UTC()
	e, err := l.runningEntry(ctx, u.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if running.ID == "" || running.StartTime.IsZero() {
			return nil, reject(op, http.StatusNotFound, "No running timer found")
		}
		e = running
		e.UserID = u.ID
		e.Tags = domain.NormalizeTags(e.Tags)
		if e.CreatedAt.IsZero() {
			e.CreatedAt = e.StartTime
		}
		e.Complete(now)
		if _, lookupErr := l.entryByID(ctx, u.ID, e.ID); lookupErr == nil {
			e.ID = uuid.NewString()
		}
		if err := l.insertEntry(ctx, e); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		l.log.Info().Str("entry_id", e.ID).Msg("recorded entry started elsewhere")
		return &e, nil
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	e.Complete(now)
	if err := l.saveEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &e, nil
}

func (l *Local) CurrentTimer(ctx context.Context, token string) (*domain.TimeEntry, error) {
	const op = "current timer"
	u, err := l.authenticate(ctx, op, token)
	if err != nil {
		return nil, err
	}
	e, err := l.runningEntry(ctx, u.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &e, nil
}

func (l *Local) ListEntries(ctx context.Context, token string, skip, limit int) ([]domain.TimeEntry, error) {
	const op = "list entries"
	u, err := l.authenticate(ctx, op, token)
	if err != nil {
		return nil, err
	}
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 100
	}
	return l.queryEntries(ctx, op,
		`SELECT `+entryColumns+` FROM time_entries WHERE user_id = ? ORDER BY start_time DESC LIMIT ? OFFSET ?`,
		u.ID, limit, skip)
}

func (l *Local) UpdateEntry(ctx context.Context, token, id string, req domain.TimeEntryUpdate) (*domain.TimeEntry, error) {
	const op = "update entry"
	u, err := l.authenticate(ctx, op, token)
	if err != nil {
		return nil, err
	}
	e, err := l.entryByID(ctx, u.ID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reject(op, http.StatusNotFound, "Time entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	e = req.Apply(e)
	if e.EndTime != nil && e.EndTime.Before(e.StartTime) {
		return nil, reject(op, http.StatusBadRequest, "End time must be after start time")
	}
	e.UpdatedAt = l.now().UTC()
	if err := l.saveEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &e, nil
}

func (l *Local) DeleteEntry(ctx context.Context, token, id string) error {
	const op = "delete entry"
	u, err := l.authenticate(ctx, op, token)
	if err != nil {
		return err
	}
	res, err := l.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ? AND user_id = ?`, id, u.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return reject(op, http.StatusNotFound, "Time entry not found")
	}
	return nil
}

// --- reports ---

func (l *Local) DailySummary(ctx context.Context, token string, start, end time.Time) ([]domain.DailySummary, error) {
	entries, err := l.completedBetween(ctx, "daily summary", token, start, end, DailyWindow)
	if err != nil {
		return nil, err
	}
	return summarizeDaily(entries), nil
}

func (l *Local) ProjectSummary(ctx context.Context, token string, start, end time.Time) ([]domain.ProjectSummary, error) {
	const op = "project summary"
	entries, err := l.completedBetween(ctx, op, token, start, end, SummaryWindow)
	if err != nil {
		return nil, err
	}
	projects, err := l.ListProjects(ctx, token)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return summarizeProjects(entries, names), nil
}

func (l *Local) TagSummary(ctx context.Context, token string, start, end time.Time) ([]domain.TagSummary, error) {
	entries, err := l.completedBetween(ctx, "tag summary", token, start, end, SummaryWindow)
	if err != nil {
		return nil, err
	}
	return summarizeTags(entries), nil
}

func (l *Local) completedBetween(ctx context.Context, op, token string, start, end time.Time, window time.Duration) ([]domain.TimeEntry, error) {
	u, err := l.authenticate(ctx, op, token)
	if err != nil {
		return nil, err
	}
	start, end = ReportRange(start, end, window, l.now())
	return l.queryEntries(ctx, op,
		`SELECT `+entryColumns+` FROM time_entries
		 WHERE user_id = ? AND start_time >= ? AND start_time <= ? AND duration IS NOT NULL
		 ORDER BY start_time`,
		u.ID, formatTime(start), formatTime(end))
}

// --- storage helpers ---

type storedUser struct {
	domain.User
	hash string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nameFromEmail(email string) string {
	name, _, _ := strings.Cut(email, "@")
	if name == "" {
		return email
	}
	return name
}

func (l *Local) authenticate(ctx context.Context, op, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, reject(op, http.StatusUnauthorized, "Not authenticated")
	}
	row := l.db.QueryRowContext(ctx,
		`SELECT u.id, u.email, u.name, u.photo_url, u.password_hash, u.created_at
		 FROM sessions s JOIN users u ON u.id = s.user_id WHERE s.token = ?`, token)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, reject(op, http.StatusUnauthorized, "Could not validate credentials")
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u.User, nil
}

func (l *Local) userByEmail(ctx context.Context, email string) (storedUser, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, email, name, photo_url, password_hash, created_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (l *Local) createUser(ctx context.Context, id, email, name, password string) (storedUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return storedUser{}, fmt.Errorf("hash password: %w", err)
	}
	u := storedUser{
		User: domain.User{ID: id, Email: email, Name: name, CreatedAt: l.now().UTC()},
		hash: string(hash),
	}
	if _, err := l.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, photo_url, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PhotoURL, u.hash, formatTime(u.CreatedAt)); err != nil {
		return storedUser{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (l *Local) insertSession(ctx context.Context, token, userID string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(token) DO UPDATE SET user_id = excluded.user_id`,
		token, userID, formatTime(l.now()))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (storedUser, error) {
	var u storedUser
	var created string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PhotoURL, &u.hash, &created); err != nil {
		return storedUser{}, err
	}
	t, err := parseTime(created)
	if err != nil {
		return storedUser{}, fmt.Errorf("parse created_at: %w", err)
	}
	u.CreatedAt = t
	return u, nil
}

const projectColumns = `id, user_id, name, description, color, is_archived, created_at, updated_at`

func (l *Local) insertProject(ctx context.Context, userID string, req domain.ProjectCreate) (domain.Project, error) {
	now := l.now().UTC()
	p := domain.Project{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Color:       req.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
		UserID:      userID,
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Description, p.Color, p.IsArchived, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (l *Local) projectByID(ctx context.Context, userID, id string) (domain.Project, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ? AND user_id = ?`, id, userID)
	return scanProject(row)
}

func scanProject(row scanner) (domain.Project, error) {
	var p domain.Project
	var created, updated string
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Color, &p.IsArchived, &created, &updated); err != nil {
		return domain.Project{}, err
	}
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return domain.Project{}, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return domain.Project{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return p, nil
}

const entryColumns = `id, user_id, description, start_time, end_time, duration, project_id, tags, created_at, updated_at`

func (l *Local) insertEntry(ctx context.Context, e domain.TimeEntry) error {
	tags, err := json.Marshal(domain.NormalizeTags(e.Tags))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO time_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Description, formatTime(e.StartTime), nullTime(e.EndTime), nullFloat(e.Duration),
		nullString(e.ProjectID), string(tags), formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (l *Local) saveEntry(ctx context.Context, e domain.TimeEntry) error {
	tags, err := json.Marshal(domain.NormalizeTags(e.Tags))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`UPDATE time_entries SET description = ?, start_time = ?, end_time = ?, duration = ?, project_id = ?, tags = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		e.Description, formatTime(e.StartTime), nullTime(e.EndTime), nullFloat(e.Duration),
		nullString(e.ProjectID), string(tags), formatTime(e.UpdatedAt), e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return nil
}

func (l *Local) runningEntry(ctx context.Context, userID string) (domain.TimeEntry, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE user_id = ? AND end_time IS NULL ORDER BY start_time DESC LIMIT 1`, userID)
	return scanEntry(row)
}

func (l *Local) entryByID(ctx context.Context, userID, id string) (domain.TimeEntry, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE id = ? AND user_id = ?`, id, userID)
	return scanEntry(row)
}

func (l *Local) queryEntries(ctx context.Context, op, query string, args ...any) ([]domain.TimeEntry, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close() //nolint:errcheck

	entries := []domain.TimeEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

func scanEntry(row scanner) (domain.TimeEntry, error) {
	var (
		e                       domain.TimeEntry
		start, created, updated string
		end, projectID          sql.NullString
		duration                sql.NullFloat64
		tags                    string
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Description, &start, &end, &duration, &projectID, &tags, &created, &updated); err != nil {
		return domain.TimeEntry{}, err
	}

	var err error
	if e.StartTime, err = parseTime(start); err != nil {
		return domain.TimeEntry{}, fmt.Errorf("parse start_time: %w", err)
	}
	if end.Valid {
		t, err := parseTime(end.String)
		if err != nil {
			return domain.TimeEntry{}, fmt.Errorf("parse end_time: %w", err)
		}
		e.EndTime = &t
	}
	if duration.Valid {
		d := duration.Float64
		e.Duration = &d
	}
	if projectID.Valid {
		id := projectID.String
		e.ProjectID = &id
	}
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return domain.TimeEntry{}, fmt.Errorf("parse tags: %w", err)
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return domain.TimeEntry{}, fmt.Errorf("parse created_at: %w", err)
	}
	if e.UpdatedAt, err = parseTime(updated); err != nil {
		return domain.TimeEntry{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return e, nil
}
