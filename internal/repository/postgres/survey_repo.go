package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"opinex/internal/domain/survey"
)

const surveyColumns = `
    id, surveyor_email, title, description, category, deadline, created_at,
    question_title, question_description, status, feedback, yes_count, no_count,
    voter, comment, reported_by
`

type SurveyRepo struct {
	db *sql.DB
}

func NewSurveyRepo(db *sql.DB) *SurveyRepo {
	return &SurveyRepo{db: db}
}

func (r *SurveyRepo) Create(ctx context.Context, s *survey.Survey) (string, error) {
	voter, comment, reported, err := marshalArrays(s)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	query := `
        INSERT INTO surveys (id, surveyor_email, title, description, category, deadline, created_at,
                             question_title, question_description, status, feedback, yes_count, no_count,
                             voter, comment, reported_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::jsonb, $15::jsonb, $16::jsonb)
    `
	_, err = r.db.ExecContext(ctx, query,
		id, s.SurveyorEmail, s.Title, s.Description, s.Category, s.Deadline, s.CreatedAt,
		s.QuestionTitle, s.QuestionDescription, string(s.Status), s.Feedback, s.YesCount, s.NoCount,
		voter, comment, reported,
	)
	if err != nil {
		return "", err
	}
	s.ID = id
	return id, nil
}

func (r *SurveyRepo) GetByID(ctx context.Context, id string) (*survey.Survey, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+surveyColumns+` FROM surveys WHERE id = $1`, id)
	s, err := scanSurvey(row)
	if err == sql.ErrNoRows {
		return nil, survey.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SurveyRepo) ListByOwner(ctx context.Context, email string) ([]survey.Survey, error) {
	return r.query(ctx, `SELECT `+surveyColumns+` FROM surveys WHERE surveyor_email = $1 ORDER BY created_at, id`, email)
}

func (r *SurveyRepo) List(ctx context.Context, status survey.Status) ([]survey.Survey, error) {
	if status == "" {
		return r.query(ctx, `SELECT `+surveyColumns+` FROM surveys ORDER BY created_at, id`)
	}
	return r.query(ctx, `SELECT `+surveyColumns+` FROM surveys WHERE status = $1 ORDER BY created_at, id`, string(status))
}

func (r *SurveyRepo) Update(ctx context.Context, id string, in survey.UpdateInput) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE surveys SET
            title = COALESCE($2, title),
            description = COALESCE($3, description),
            category = COALESCE($4, category),
            deadline = COALESCE($5, deadline),
            question_title = COALESCE($6, question_title),
            question_description = COALESCE($7, question_description)
        WHERE id = $1
    `, id, in.Title, in.Description, in.Category, in.Deadline, in.QuestionTitle, in.QuestionDescription)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return survey.ErrNotFound
	}
	return nil
}

func (r *SurveyRepo) SetStatus(ctx context.Context, id string, from, to survey.Status, feedback *string) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE surveys SET status = $3, feedback = COALESCE($4, feedback)
        WHERE id = $1 AND status = $2
    `, id, string(from), string(to), feedback)
	if err != nil {
		return err
	}
	return r.conditionResult(ctx, id, res)
}

func (r *SurveyRepo) AddVote(ctx context.Context, id string, v survey.Voter, c *survey.Comment) error {
	var yes, no int
	switch v.Vote {
	case survey.ChoiceYes:
		yes = 1
	case survey.ChoiceNo:
		no = 1
	default:
		return survey.ErrInvalidVote
	}

	voterJSON, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var commentArg any
	if c != nil {
		b, err := json.Marshal(c)
		if err != nil {
			return err
		}
		commentArg = string(b)
	}

	res, err := r.db.ExecContext(ctx, `
        UPDATE surveys SET
            yes_count = yes_count + $2,
            no_count = no_count + $3,
            voter = voter || jsonb_build_array($4::jsonb),
            comment = CASE WHEN $5::jsonb IS NULL THEN comment ELSE comment || jsonb_build_array($5::jsonb) END
        WHERE id = $1
          AND status = 'publish'
          AND NOT voter @> jsonb_build_array(jsonb_build_object('userEmail', $6::text))
    `, id, yes, no, string(voterJSON), commentArg, v.UserEmail)
	if err != nil {
		return err
	}
	return r.conditionResult(ctx, id, res)
}

func (r *SurveyRepo) AddComment(ctx context.Context, id string, c survey.Comment) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE surveys SET comment = comment || jsonb_build_array($2::jsonb) WHERE id = $1`, id, string(b))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return survey.ErrNotFound
	}
	return nil
}

func (r *SurveyRepo) AddReport(ctx context.Context, id string, rep survey.Report) error {
	b, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE surveys SET reported_by = reported_by || jsonb_build_array($2::jsonb)
        WHERE id = $1
          AND NOT reported_by @> jsonb_build_array(jsonb_build_object('userEmail', $3::text))
    `, id, string(b), rep.UserEmail)
	if err != nil {
		return err
	}
	return r.conditionResult(ctx, id, res)
}

func (r *SurveyRepo) TopByVotes(ctx context.Context, limit int) ([]survey.Survey, error) {
	return r.query(ctx, `
        SELECT `+surveyColumns+` FROM surveys
        WHERE status = 'publish'
        ORDER BY (yes_count + no_count) DESC, id
        LIMIT $1
    `, limit)
}

func (r *SurveyRepo) Latest(ctx context.Context, limit int) ([]survey.Survey, error) {
	return r.query(ctx, `
        SELECT `+surveyColumns+` FROM surveys
        WHERE status = 'publish'
        ORDER BY created_at DESC, id
        LIMIT $1
    `, limit)
}

func (r *SurveyRepo) FindByVoter(ctx context.Context, f survey.Filter) ([]survey.Survey, error) {
	elem := map[string]string{"userEmail": f.UserEmail}
	if f.Vote != "" {
		elem["vote"] = string(f.Vote)
	}
	return r.findContaining(ctx, "voter", elem)
}

func (r *SurveyRepo) FindByCommenter(ctx context.Context, f survey.Filter) ([]survey.Survey, error) {
	return r.findContaining(ctx, "comment", map[string]string{"userEmail": f.UserEmail})
}

func (r *SurveyRepo) FindByReporter(ctx context.Context, f survey.Filter) ([]survey.Survey, error) {
	return r.findContaining(ctx, "reported_by", map[string]string{"userEmail": f.UserEmail})
}

// findContaining matches surveys whose JSONB array column holds an element
// containing every key of elem. column is never caller supplied.
func (r *SurveyRepo) findContaining(ctx context.Context, column string, elem map[string]string) ([]survey.Survey, error) {
	b, err := json.Marshal([]map[string]string{elem})
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM surveys WHERE %s @> $1::jsonb ORDER BY created_at, id`, surveyColumns, column)
	return r.query(ctx, query, string(b))
}

func (r *SurveyRepo) query(ctx context.Context, query string, args ...any) ([]survey.Survey, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []survey.Survey{}
	for rows.Next() {
		s, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *s)
	}
	return res, rows.Err()
}

func (r *SurveyRepo) conditionResult(ctx context.Context, id string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM surveys WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return survey.ErrNotFound
	}
	return survey.ErrConditionFailed
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSurvey(row rowScanner) (*survey.Survey, error) {
	var (
		s                          survey.Survey
		status                     string
		voter, comment, reportedBy []byte
	)
	err := row.Scan(
		&s.ID, &s.SurveyorEmail, &s.Title, &s.Description, &s.Category, &s.Deadline, &s.CreatedAt,
		&s.QuestionTitle, &s.QuestionDescription, &status, &s.Feedback, &s.YesCount, &s.NoCount,
		&voter, &comment, &reportedBy,
	)
	if err != nil {
		return nil, err
	}
	s.Status = survey.Status(status)

	s.Voter, s.Comment, s.ReportedBy = []survey.Voter{}, []survey.Comment{}, []survey.Report{}
	if err := unmarshalArray(voter, &s.Voter); err != nil {
		return nil, err
	}
	if err := unmarshalArray(comment, &s.Comment); err != nil {
		return nil, err
	}
	if err := unmarshalArray(reportedBy, &s.ReportedBy); err != nil {
		return nil, err
	}
	return &s, nil
}

func unmarshalArray(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func marshalArrays(s *survey.Survey) (voter, comment, reported string, err error) {
	enc := func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		if string(b) == "null" {
			return "[]", nil
		}
		return string(b), nil
	}
	if voter, err = enc(s.Voter); err != nil {
		return
	}
	if comment, err = enc(s.Comment); err != nil {
		return
	}
	reported, err = enc(s.ReportedBy)
	return
}
