package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	planstore "dersplan/internal/adapters/storage/plan"
	domain "dersplan/internal/domain/plan"
)

// TokenFunc returns the signed-in user's access token for ctx, or "" when
// the call should go out with the anon key.
type TokenFunc func(ctx context.Context) string

// PlanStore implements plan.Store against the PostgREST table of a Supabase project.
// Row level security on the table decides what the bearer may read or change.
type PlanStore struct {
	client *Client
	table  string
	token  TokenFunc
}

var _ planstore.Store = (*PlanStore)(nil)

// NewPlanStore creates a PlanStore for table.
// PRE: client != nil
// POST: an empty table falls back to the local table name; a nil token sends the anon key
func NewPlanStore(client *Client, table string, token TokenFunc) *PlanStore {
	if table == "" {
		table = planstore.Table
	}
	if token == nil {
		token = func(context.Context) string { return "" }
	}
	return &PlanStore{client: client, table: table, token: token}
}

func (s *PlanStore) path() string {
	return "/rest/v1/" + s.table
}

// Create inserts p and returns the id the database assigned.
// PRE: p has been validated
// POST: exactly one row inserted, owned by p.Owner
func (s *PlanStore) Create(ctx context.Context, p domain.Plan) (string, error) {
	row := rowFromPlan(p)
	row["user_id"] = p.Owner

	var rows []map[string]any
	err := s.client.do(ctx, request{
		method:  http.MethodPost,
		path:    s.path(),
		bearer:  s.token(ctx),
		body:    row,
		headers: map[string]string{"Prefer": "return=representation"},
	}, &rows)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("insert into %s returned no row", s.table)
	}
	id := stringField(rows[0], "id")
	if id == "" {
		return "", fmt.Errorf("insert into %s returned no id", s.table)
	}
	return id, nil
}

// Update replaces the editable fields of plan p.ID.
// POST: user_id, id and created_at are never sent; ErrNotFound when no row matched
func (s *PlanStore) Update(ctx context.Context, p domain.Plan) error {
	var rows []map[string]any
	err := s.client.do(ctx, request{
		method:  http.MethodPatch,
		path:    s.path(),
		query:   url.Values{"id": {"eq." + p.ID}},
		bearer:  s.token(ctx),
		body:    rowFromPlan(p),
		headers: map[string]string{"Prefer": "return=representation"},
	}, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes plan id.
// POST: ErrNotFound when no row matched
func (s *PlanStore) Delete(ctx context.Context, id string) error {
	var rows []map[string]any
	err := s.client.do(ctx, request{
		method:  http.MethodDelete,
		path:    s.path(),
		query:   url.Values{"id": {"eq." + id}},
		bearer:  s.token(ctx),
		headers: map[string]string{"Prefer": "return=representation"},
	}, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID fetches one plan.
func (s *PlanStore) GetByID(ctx context.Context, id string) (domain.Plan, error) {
	var rows []map[string]any
	err := s.client.do(ctx, request{
		method: http.MethodGet,
		path:   s.path(),
		query:  url.Values{"id": {"eq." + id}, "select": {"*"}},
		bearer: s.token(ctx),
	}, &rows)
	if err != nil {
		return domain.Plan{}, err
	}
	if len(rows) == 0 {
		return domain.Plan{}, domain.ErrNotFound
	}
	return planFromRow(rows[0])
}

// List returns the owner's plans, newest date first.
func (s *PlanStore) List(ctx context.Context, filter planstore.ListFilter) ([]domain.Plan, error) {
	q := url.Values{
		"select": {"*"},
		"order":  {"date.desc,created_at.desc"},
	}
	if filter.Owner != "" {
		q.Set("user_id", "eq."+filter.Owner)
	}
	if !filter.CreatedAfter.IsZero() {
		q.Set("created_at", "gt."+filter.CreatedAfter.UTC().Format(time.RFC3339Nano))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	var rows []map[string]any
	err := s.client.do(ctx, request{
		method: http.MethodGet,
		path:   s.path(),
		query:  q,
		bearer: s.token(ctx),
	}, &rows)
	if err != nil {
		return nil, err
	}

	plans := make([]domain.Plan, 0, len(rows))
	for _, row := range rows {
		p, err := planFromRow(row)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// rowFromPlan maps the editable fields of p to column names.
// Empty sections are sent as "" so a cleared section is cleared remotely too.
func rowFromPlan(p domain.Plan) map[string]any {
	row := map[string]any{
		"title":            p.Title,
		"date":             p.Date.Format(domain.DateLayout),
		"class_level":      p.ClassLevel,
		"subject":          p.Subject,
		"curriculum_topic": p.CurriculumTopic,
		"duration":         p.DurationMinutes,
	}
	for _, key := range domain.SectionKeys() {
		row[key] = p.Section(key)
	}
	return row
}

// planFromRow builds a Plan from a decoded row. Null or missing sections are left out.
func planFromRow(row map[string]any) (domain.Plan, error) {
	p := domain.Plan{
		ID:              stringField(row, "id"),
		Owner:           stringField(row, "user_id"),
		Title:           stringField(row, "title"),
		ClassLevel:      stringField(row, "class_level"),
		Subject:         stringField(row, "subject"),
		CurriculumTopic: stringField(row, "curriculum_topic"),
		Sections:        map[string]string{},
	}

	if raw := stringField(row, "date"); raw != "" {
		// date columns may come back as a full timestamp
		if len(raw) > len(domain.DateLayout) {
			raw = raw[:len(domain.DateLayout)]
		}
		d, err := time.Parse(domain.DateLayout, raw)
		if err != nil {
			return domain.Plan{}, fmt.Errorf("parse date %q: %w", raw, err)
		}
		p.Date = d
	}

	switch v := row["duration"].(type) {
	case float64:
		p.DurationMinutes = int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.Plan{}, fmt.Errorf("parse duration %q: %w", v, err)
		}
		p.DurationMinutes = n
	}

	if raw := stringField(row, "created_at"); raw != "" {
		t, ok := parseTimestamp(raw)
		if !ok {
			slog.Warn("plan_event", "event", "created_at_unparsed", "plan_id", p.ID, "value", raw)
		}
		p.CreatedAt = t
	}

	for _, key := range domain.SectionKeys() {
		if v := stringField(row, key); v != "" {
			p.Sections[key] = v
		}
	}
	return p, nil
}

// timestampLayouts are the created_at shapes seen from timestamptz and
// timestamp columns. Zone-less values are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp tries each known layout.
// POST: ok is false and t is zero when none matched
func parseTimestamp(raw string) (t time.Time, ok bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func stringField(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
