package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/prsim/prsim/internal/domain/model"
)

// PostgresStore is the durable Store. Increments run as single UPDATE
// statements and the multi-row reducers run in one transaction, so the
// consistency invariants hold across processes as well.
type PostgresStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewPostgresStore opens a connection pool against dsn and verifies it.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

// Close releases the underlying pool.
func (p *PostgresStore) Close() error { return p.db.Close() }

var _ Store = (*PostgresStore)(nil)

// --- jobs ---

func (p *PostgresStore) CreateJob(ctx context.Context, job *model.ScoringJob) error {
	_, err := p.sb.Insert("scoring_jobs").
		Columns("id", "release_text", "population_id", "status", "processed_count", "total_score", "error_text", "created_at").
		Values(job.ID, job.ReleaseText, job.PopulationID, job.Status, job.ProcessedCount, job.TotalScore, job.ErrorText, job.CreatedAt).
		RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (p *PostgresStore) Job(ctx context.Context, id string) (model.ScoringJob, error) {
	row := p.sb.Select("id", "release_text", "population_id", "status", "processed_count", "total_score", "error_text", "created_at").
		From("scoring_jobs").Where(sq.Eq{"id": id}).
		RunWith(p.db).QueryRowContext(ctx)
	return scanJob(row, id)
}

func (p *PostgresStore) ListJobsByStatus(ctx context.Context, status model.JobStatus) ([]model.ScoringJob, error) {
	rows, err := p.sb.Select("id", "release_text", "population_id", "status", "processed_count", "total_score", "error_text", "created_at").
		From("scoring_jobs").Where(sq.Eq{"status": status}).OrderBy("created_at").
		RunWith(p.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []model.ScoringJob
	for rows.Next() {
		var j model.ScoringJob
		if err := rows.Scan(&j.ID, &j.ReleaseText, &j.PopulationID, &j.Status, &j.ProcessedCount, &j.TotalScore, &j.ErrorText, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (p *PostgresStore) SetJobStatus(ctx context.Context, id string, status model.JobStatus, errText string) error {
	q := p.sb.Update("scoring_jobs").Set("status", status).Where(sq.Eq{"id": id})
	if status == model.JobFailed {
		q = q.Set("error_text", errText)
	}
	res, err := q.RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return requireRow(res, fmt.Sprintf("job %s", id))
}

func (p *PostgresStore) EnsureCategory(ctx context.Context, jobID, key, displayName string) (model.CategoryScore, error) {
	c := model.CategoryScore{ID: jobID + "/" + key, JobID: jobID, Key: key, DisplayName: displayName}
	_, err := p.sb.Insert("category_scores").
		Columns("id", "job_id", "key", "display_name", "subtotal").
		Values(c.ID, c.JobID, c.Key, c.DisplayName, 0).
		Suffix("ON CONFLICT (job_id, key) DO NOTHING").
		RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return model.CategoryScore{}, fmt.Errorf("ensure category: %w", err)
	}
	row := p.sb.Select("id", "job_id", "key", "display_name", "subtotal").
		From("category_scores").Where(sq.Eq{"job_id": jobID, "key": key}).
		RunWith(p.db).QueryRowContext(ctx)
	if err := row.Scan(&c.ID, &c.JobID, &c.Key, &c.DisplayName, &c.Subtotal); err != nil {
		return model.CategoryScore{}, fmt.Errorf("read category: %w", err)
	}
	return c, nil
}

func (p *PostgresStore) Categories(ctx context.Context, jobID string) ([]model.CategoryScore, error) {
	rows, err := p.sb.Select("id", "job_id", "key", "display_name", "subtotal").
		From("category_scores").Where(sq.Eq{"job_id": jobID}).OrderBy("id").
		RunWith(p.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []model.CategoryScore
	for rows.Next() {
		var c model.CategoryScore
		if err := rows.Scan(&c.ID, &c.JobID, &c.Key, &c.DisplayName, &c.Subtotal); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *PostgresStore) Question(ctx context.Context, jobID string, number int) (model.QuestionScore, bool, error) {
	row := p.sb.Select("id", "job_id", "category_key", "number", "question_text", "answer_id", "score", "raw_response").
		From("question_scores").Where(sq.Eq{"job_id": jobID, "number": number}).
		RunWith(p.db).QueryRowContext(ctx)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.QuestionScore{}, false, nil
	}
	if err != nil {
		return model.QuestionScore{}, false, err
	}
	return q, true, nil
}

func (p *PostgresStore) CreateQuestion(ctx context.Context, q *model.QuestionScore) error {
	_, err := p.sb.Insert("question_scores").
		Columns("id", "job_id", "category_key", "number", "question_text", "answer_id").
		Values(q.ID, q.JobID, q.CategoryKey, q.Number, q.QuestionText, q.AnswerID).
		RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (p *PostgresStore) SetQuestionAnswerID(ctx context.Context, jobID string, number int, answerID string) error {
	res, err := p.sb.Update("question_scores").Set("answer_id", answerID).
		Where(sq.Eq{"job_id": jobID, "number": number}).
		RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update answer id: %w", err)
	}
	return requireRow(res, fmt.Sprintf("job %s question %d", jobID, number))
}

func (p *PostgresStore) Questions(ctx context.Context, jobID string) ([]model.QuestionScore, error) {
	rows, err := p.sb.Select("id", "job_id", "category_key", "number", "question_text", "answer_id", "score", "raw_response").
		From("question_scores").Where(sq.Eq{"job_id": jobID}).OrderBy("number").
		RunWith(p.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []model.QuestionScore
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (p *PostgresStore) ResolveQuestion(ctx context.Context, jobID string, number int, score int, raw map[string]float64, rubricSize int) (model.ScoringJob, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ScoringJob{}, fmt.Errorf("begin resolve: %w", err)
	}
	defer tx.Rollback()

	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return model.ScoringJob{}, fmt.Errorf("encode raw response: %w", err)
	}

	// The score IS NULL guard makes the resolve at-most-once under
	// concurrent callers.
	res, err := p.sb.Update("question_scores").
		Set("score", score).Set("raw_response", rawJSON).
		Where(sq.Eq{"job_id": jobID, "number": number}).Where("score IS NULL").
		RunWith(tx).ExecContext(ctx)
	if err != nil {
		return model.ScoringJob{}, fmt.Errorf("resolve question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM question_scores WHERE job_id = $1 AND number = $2)",
			jobID, number).Scan(&exists)
		if err != nil {
			return model.ScoringJob{}, fmt.Errorf("check question: %w", err)
		}
		if exists {
			return model.ScoringJob{}, fmt.Errorf("job %s question %d: %w", jobID, number, ErrAlreadyScored)
		}
		return model.ScoringJob{}, fmt.Errorf("job %s question %d: %w", jobID, number, ErrNotFound)
	}

	var catKey string
	if err := tx.QueryRowContext(ctx,
		"SELECT category_key FROM question_scores WHERE job_id = $1 AND number = $2",
		jobID, number).Scan(&catKey); err != nil {
		return model.ScoringJob{}, fmt.Errorf("read category key: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE category_scores SET subtotal = subtotal + $1 WHERE job_id = $2 AND key = $3",
		score, jobID, catKey); err != nil {
		return model.ScoringJob{}, fmt.Errorf("bump category subtotal: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE scoring_jobs SET
			total_score = total_score + $1,
			processed_count = processed_count + 1,
			status = CASE
				WHEN processed_count + 1 >= $2 THEN 'done'
				WHEN status = 'pending' THEN 'running'
				ELSE status
			END
		WHERE id = $3
		RETURNING id, release_text, population_id, status, processed_count, total_score, error_text, created_at`,
		score, rubricSize, jobID)
	j, err := scanJob(row, jobID)
	if err != nil {
		return model.ScoringJob{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.ScoringJob{}, fmt.Errorf("commit resolve: %w", err)
	}
	return j, nil
}

// --- headline tests ---

func (p *PostgresStore) CreateTest(ctx context.Context, t *model.HeadlineTest) error {
	_, err := p.sb.Insert("headline_tests").
		Columns("id", "original_headline", "context_url", "population_id", "status", "error_text", "created_at").
		Values(t.ID, t.OriginalHeadline, t.ContextURL, t.PopulationID, t.Status, t.ErrorText, t.CreatedAt).
		RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert headline test: %w", err)
	}
	return nil
}

func (p *PostgresStore) Test(ctx context.Context, id string) (model.HeadlineTest, error) {
	row := p.sb.Select("id", "original_headline", "context_url", "population_id", "status", "error_text",
		"winning_headline", "winning_score", "original_score", "improvement_percent", "created_at").
		From("headline_tests").Where(sq.Eq{"id": id}).
		RunWith(p.db).QueryRowContext(ctx)
	return scanTest(row, id)
}

func (p *PostgresStore) ListTestsByStatus(ctx context.Context, status model.TestStatus) ([]model.HeadlineTest, error) {
	rows, err := p.sb.Select("id", "original_headline", "context_url", "population_id", "status", "error_text",
		"winning_headline", "winning_score", "original_score", "improvement_percent", "created_at").
		From("headline_tests").Where(sq.Eq{"status": status}).OrderBy("created_at").
		RunWith(p.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list headline tests: %w", err)
	}
	defer rows.Close()

	var out []model.HeadlineTest
	for rows.Next() {
		t, err := scanTestRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *PostgresStore) SetTestStatus(ctx context.Context, id string, status model.TestStatus, errText string) error {
	q := p.sb.Update("headline_tests").Set("status", status).Where(sq.Eq{"id": id})
	if status == model.TestFailed {
		q = q.Set("error_text", errText)
	}
	res, err := q.RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update test status: %w", err)
	}
	return requireRow(res, fmt.Sprintf("headline test %s", id))
}

func (p *PostgresStore) SetTestPopulation(ctx context.Context, id, populationID string) error {
	res, err := p.sb.Update("headline_tests").Set("population_id", populationID).
		Where(sq.Eq{"id": id}).RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update test population: %w", err)
	}
	return requireRow(res, fmt.Sprintf("headline test %s", id))
}

func (p *PostgresStore) AddAlternative(ctx context.Context, alt *model.AlternativeHeadline) error {
	_, err := p.sb.Insert("alternative_headlines").
		Columns("id", "test_id", "text", "angle", "ordinal", "created_at").
		Values(alt.ID, alt.TestID, alt.Text, alt.Angle, alt.Order, alt.CreatedAt).
		RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert alternative: %w", err)
	}
	return nil
}

func (p *PostgresStore) Alternatives(ctx context.Context, testID string) ([]model.AlternativeHeadline, error) {
	rows, err := p.sb.Select("id", "test_id", "text", "angle", "ordinal", "created_at").
		From("alternative_headlines").Where(sq.Eq{"test_id": testID}).OrderBy("ordinal").
		RunWith(p.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list alternatives: %w", err)
	}
	defer rows.Close()

	var out []model.AlternativeHeadline
	for rows.Next() {
		var a model.AlternativeHeadline
		if err := rows.Scan(&a.ID, &a.TestID, &a.Text, &a.Angle, &a.Order, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alternative: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *PostgresStore) CreateHeadlineScore(ctx context.Context, s *model.HeadlineScore) error {
	_, err := p.sb.Insert("headline_scores").
		Columns("id", "test_id", "text", "is_original", "answer_id", "created_at").
		Values(s.ID, s.TestID, s.Text, s.IsOriginal, s.AnswerID, s.CreatedAt).
		RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert headline score: %w", err)
	}
	return nil
}

func (p *PostgresStore) HeadlineScores(ctx context.Context, testID string) ([]model.HeadlineScore, error) {
	// seq preserves insertion order for the first-created-wins tie break.
	rows, err := p.sb.Select("id", "test_id", "text", "is_original", "answer_id", "preference", "created_at", "resolved_at").
		From("headline_scores").Where(sq.Eq{"test_id": testID}).OrderBy("seq").
		RunWith(p.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list headline scores: %w", err)
	}
	defer rows.Close()

	var out []model.HeadlineScore
	for rows.Next() {
		s, err := scanHeadlineScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *PostgresStore) HeadlineScore(ctx context.Context, id string) (model.HeadlineScore, error) {
	row := p.sb.Select("id", "test_id", "text", "is_original", "answer_id", "preference", "created_at", "resolved_at").
		From("headline_scores").Where(sq.Eq{"id": id}).
		RunWith(p.db).QueryRowContext(ctx)
	s, err := scanHeadlineScore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.HeadlineScore{}, fmt.Errorf("headline score %s: %w", id, ErrNotFound)
	}
	return s, err
}

func (p *PostgresStore) SetHeadlineAnswerID(ctx context.Context, id, answerID string) error {
	res, err := p.sb.Update("headline_scores").Set("answer_id", answerID).
		Where(sq.Eq{"id": id}).RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update headline answer id: %w", err)
	}
	return requireRow(res, fmt.Sprintf("headline score %s", id))
}

func (p *PostgresStore) ResolveHeadlineScore(ctx context.Context, id string, preference float64, at time.Time) error {
	res, err := p.sb.Update("headline_scores").
		Set("preference", preference).Set("resolved_at", at).
		Where(sq.Eq{"id": id}).Where("preference IS NULL").
		RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("resolve headline score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := p.db.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM headline_scores WHERE id = $1)", id).Scan(&exists); err != nil {
			return fmt.Errorf("check headline score: %w", err)
		}
		if exists {
			return fmt.Errorf("headline score %s: %w", id, ErrAlreadyScored)
		}
		return fmt.Errorf("headline score %s: %w", id, ErrNotFound)
	}
	return nil
}

func (p *PostgresStore) FinalizeTest(ctx context.Context, id string, winner string, winScore float64, origScore, improvement *float64) error {
	res, err := p.sb.Update("headline_tests").
		Set("winning_headline", winner).
		Set("winning_score", winScore).
		Set("original_score", origScore).
		Set("improvement_percent", improvement).
		Set("status", model.TestCompleted).
		Where(sq.Eq{"id": id}).
		RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("finalize test: %w", err)
	}
	return requireRow(res, fmt.Sprintf("headline test %s", id))
}

// --- campaigns ---

func (p *PostgresStore) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	_, err := p.sb.Insert("campaigns").
		Columns("id", "name", "subject", "body", "status", "total_recipients", "sent_count", "failed_count", "created_at").
		Values(c.ID, c.Name, c.Subject, c.Body, c.Status, c.TotalRecipients, c.SentCount, c.FailedCount, c.CreatedAt).
		RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (p *PostgresStore) Campaign(ctx context.Context, id string) (model.Campaign, error) {
	row := p.sb.Select("id", "name", "subject", "body", "status", "total_recipients", "sent_count", "failed_count", "created_at", "completed_at").
		From("campaigns").Where(sq.Eq{"id": id}).
		RunWith(p.db).QueryRowContext(ctx)
	return scanCampaign(row, id)
}

func (p *PostgresStore) SetCampaignStatus(ctx context.Context, id string, status model.CampaignStatus) error {
	res, err := p.sb.Update("campaigns").Set("status", status).
		Where(sq.Eq{"id": id}).RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}
	return requireRow(res, fmt.Sprintf("campaign %s", id))
}

func (p *PostgresStore) AddRecipients(ctx context.Context, campaignID string, recipients []model.Recipient) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add recipients: %w", err)
	}
	defer tx.Rollback()

	ins := p.sb.Insert("recipients").
		Columns("id", "campaign_id", "contact_id", "email", "subject", "body", "status")
	for _, r := range recipients {
		ins = ins.Values(r.ID, r.CampaignID, r.ContactID, r.Email, r.Subject, r.Body, r.Status)
	}
	if len(recipients) > 0 {
		if _, err := ins.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("insert recipients: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE campaigns SET total_recipients = (SELECT COUNT(*) FROM recipients WHERE campaign_id = $1) WHERE id = $1",
		campaignID); err != nil {
		return fmt.Errorf("update recipient total: %w", err)
	}
	return tx.Commit()
}

func (p *PostgresStore) Recipients(ctx context.Context, campaignID string) ([]model.Recipient, error) {
	rows, err := p.sb.Select("id", "campaign_id", "contact_id", "email", "subject", "body", "status", "error_text", "sent_at").
		From("recipients").Where(sq.Eq{"campaign_id": campaignID}).OrderBy("seq").
		RunWith(p.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var out []model.Recipient
	for rows.Next() {
		var r model.Recipient
		var errText sql.NullString
		var sentAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.CampaignID, &r.ContactID, &r.Email, &r.Subject, &r.Body, &r.Status, &errText, &sentAt); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		r.ErrorText = errText.String
		if sentAt.Valid {
			t := sentAt.Time
			r.SentAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresStore) MarkRecipientSending(ctx context.Context, id string) error {
	res, err := p.sb.Update("recipients").Set("status", model.RecipientSending).
		Where(sq.Eq{"id": id, "status": model.RecipientPending}).
		RunWith(p.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("mark recipient sending: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("recipient %s: %w", id, ErrInvalidTransition)
	}
	return nil
}

func (p *PostgresStore) MarkRecipientSent(ctx context.Context, id string, at time.Time) error {
	return p.finishRecipient(ctx, id, model.RecipientSent, "sent_count", func(q sq.UpdateBuilder) sq.UpdateBuilder {
		return q.Set("sent_at", at)
	})
}

func (p *PostgresStore) MarkRecipientFailed(ctx context.Context, id string, errText string) error {
	return p.finishRecipient(ctx, id, model.RecipientFailed, "failed_count", func(q sq.UpdateBuilder) sq.UpdateBuilder {
		return q.Set("error_text", errText)
	})
}

func (p *PostgresStore) finishRecipient(ctx context.Context, id string, status model.RecipientStatus, counter string, extra func(sq.UpdateBuilder) sq.UpdateBuilder) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finish recipient: %w", err)
	}
	defer tx.Rollback()

	q := extra(p.sb.Update("recipients").Set("status", status).
		Where(sq.Eq{"id": id}).
		Where(sq.NotEq{"status": []model.RecipientStatus{model.RecipientSent, model.RecipientFailed}}).
		Suffix("RETURNING campaign_id"))
	var campaignID string
	if err := q.RunWith(tx).QueryRowContext(ctx).Scan(&campaignID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("recipient %s: %w", id, ErrInvalidTransition)
		}
		return fmt.Errorf("finish recipient: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE campaigns SET %s = %s + 1 WHERE id = $1", counter, counter),
		campaignID); err != nil {
		return fmt.Errorf("bump campaign counter: %w", err)
	}
	return tx.Commit()
}

func (p *PostgresStore) CompleteCampaignIfDone(ctx context.Context, campaignID string) (model.Campaign, bool, error) {
	_, err := p.db.ExecContext(ctx, `
		UPDATE campaigns SET
			status = CASE
				WHEN failed_count = total_recipients AND total_recipients > 0 THEN 'failed'
				ELSE 'completed'
			END,
			completed_at = NOW()
		WHERE id = $1 AND status = 'sending' AND sent_count + failed_count >= total_recipients`,
		campaignID)
	if err != nil {
		return model.Campaign{}, false, fmt.Errorf("complete campaign: %w", err)
	}
	c, err := p.Campaign(ctx, campaignID)
	if err != nil {
		return model.Campaign{}, false, err
	}
	done := c.SentCount+c.FailedCount >= c.TotalRecipients
	return c, done, nil
}

// --- contacts ---

func (p *PostgresStore) CreateContact(ctx context.Context, c *model.Contact) error {
	_, err := p.sb.Insert("contacts").
		Columns("id", "first_name", "last_name", "email", "organization", "job_title", "active", "created_at").
		Values(c.ID, c.FirstName, c.LastName, c.Email, c.Organization, c.JobTitle, c.Active, c.CreatedAt).
		RunWith(p.db).ExecContext(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("contact %s: %w", c.Email, ErrDuplicateEmail)
		}
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (p *PostgresStore) Contact(ctx context.Context, id string) (model.Contact, error) {
	var c model.Contact
	row := p.sb.Select("id", "first_name", "last_name", "email", "organization", "job_title", "active", "created_at").
		From("contacts").Where(sq.Eq{"id": id}).
		RunWith(p.db).QueryRowContext(ctx)
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Organization, &c.JobTitle, &c.Active, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Contact{}, fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Contact{}, fmt.Errorf("scan contact: %w", err)
	}
	return c, nil
}

func (p *PostgresStore) ListContacts(ctx context.Context, activeOnly bool) ([]model.Contact, error) {
	q := p.sb.Select("id", "first_name", "last_name", "email", "organization", "job_title", "active", "created_at").
		From("contacts").OrderBy("created_at")
	if activeOnly {
		q = q.Where(sq.Eq{"active": true})
	}
	rows, err := q.RunWith(p.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Organization, &c.JobTitle, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- scan helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner, id string) (model.ScoringJob, error) {
	var j model.ScoringJob
	err := row.Scan(&j.ID, &j.ReleaseText, &j.PopulationID, &j.Status, &j.ProcessedCount, &j.TotalScore, &j.ErrorText, &j.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScoringJob{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.ScoringJob{}, fmt.Errorf("scan job: %w", err)
	}
	return j, nil
}

func scanQuestion(row rowScanner) (model.QuestionScore, error) {
	var q model.QuestionScore
	var score sql.NullInt64
	var rawJSON []byte
	err := row.Scan(&q.ID, &q.JobID, &q.CategoryKey, &q.Number, &q.QuestionText, &q.AnswerID, &score, &rawJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.QuestionScore{}, err
		}
		return model.QuestionScore{}, fmt.Errorf("scan question: %w", err)
	}
	if score.Valid {
		s := int(score.Int64)
		q.Score = &s
	}
	if len(rawJSON) > 0 {
		if err := json.Unmarshal(rawJSON, &q.RawResponse); err != nil {
			return model.QuestionScore{}, fmt.Errorf("decode raw response: %w", err)
		}
	}
	return q, nil
}

func scanTest(row rowScanner, id string) (model.HeadlineTest, error) {
	t, err := scanTestRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.HeadlineTest{}, fmt.Errorf("headline test %s: %w", id, ErrNotFound)
	}
	return t, err
}

func scanTestRow(row rowScanner) (model.HeadlineTest, error) {
	var t model.HeadlineTest
	var winner sql.NullString
	var winScore, origScore, improvement sql.NullFloat64
	err := row.Scan(&t.ID, &t.OriginalHeadline, &t.ContextURL, &t.PopulationID, &t.Status, &t.ErrorText,
		&winner, &winScore, &origScore, &improvement, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.HeadlineTest{}, err
		}
		return model.HeadlineTest{}, fmt.Errorf("scan headline test: %w", err)
	}
	t.WinningHeadline = winner.String
	if winScore.Valid {
		v := winScore.Float64
		t.WinningScore = &v
	}
	if origScore.Valid {
		v := origScore.Float64
		t.OriginalScore = &v
	}
	if improvement.Valid {
		v := improvement.Float64
		t.ImprovementPercent = &v
	}
	return t, nil
}

func scanHeadlineScore(row rowScanner) (model.HeadlineScore, error) {
	var s model.HeadlineScore
	var pref sql.NullFloat64
	var resolvedAt sql.NullTime
	err := row.Scan(&s.ID, &s.TestID, &s.Text, &s.IsOriginal, &s.AnswerID, &pref, &s.CreatedAt, &resolvedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.HeadlineScore{}, err
		}
		return model.HeadlineScore{}, fmt.Errorf("scan headline score: %w", err)
	}
	if pref.Valid {
		v := pref.Float64
		s.Preference = &v
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		s.ResolvedAt = &t
	}
	return s, nil
}

func scanCampaign(row rowScanner, id string) (model.Campaign, error) {
	var c model.Campaign
	var completedAt sql.NullTime
	err := row.Scan(&c.ID, &c.Name, &c.Subject, &c.Body, &c.Status, &c.TotalRecipients, &c.SentCount, &c.FailedCount, &c.CreatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Campaign{}, fmt.Errorf("campaign %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Campaign{}, fmt.Errorf("scan campaign: %w", err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		c.CompletedAt = &t
	}
	return c, nil
}

func requireRow(res sql.Result, what string) error {
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
