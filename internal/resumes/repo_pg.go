package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bads1de/CareerRise/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

const resumeColumns = `id, user_id, title, description, photo_url, color_hex, border_style, summary,
  first_name, last_name, job_title, city, country, phone, email, birth_date, gender, postal_code,
  address, nearest_station, marital_status, dependents, commute_time, desired_position,
  desired_salary, motivation, health_condition, skills, certifications, created_at, updated_at`

func (r *PGRepo) FindByIDAndOwner(ctx context.Context, id, userID string) (Resume, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Resume{}, ErrNotFound
	}
	query := `SELECT ` + resumeColumns + `
FROM resumes
WHERE id = $1 AND user_id = $2
LIMIT 1`
	res, err := scanResume(r.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	if err := r.loadChildren(ctx, r.DB, &res); err != nil {
		return Resume{}, err
	}
	return res, nil
}

func (r *PGRepo) CountByOwner(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM resumes WHERE user_id = $1`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PGRepo) Create(ctx context.Context, res Resume) (Resume, error) {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	skills, certs, err := encodeLists(res.Content)
	if err != nil {
		return Resume{}, err
	}
	const query = `
INSERT INTO resumes (id, user_id, title, description, photo_url, color_hex, border_style, summary,
  first_name, last_name, job_title, city, country, phone, email, birth_date, gender, postal_code,
  address, nearest_station, marital_status, dependents, commute_time, desired_position,
  desired_salary, motivation, health_condition, skills, certifications, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
  $21, $22, $23, $24, $25, $26, $27, $28, $29, now(), now())
RETURNING created_at, updated_at`
	args := append([]any{res.ID, res.UserID}, scalarArgs(res, skills, certs)...)
	err = db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&res.CreatedAt, &res.UpdatedAt); err != nil {
			return fmt.Errorf("insert resume: %w", err)
		}
		return insertChildren(ctx, tx, res)
	})
	if err != nil {
		return Resume{}, err
	}
	return res, nil
}

// Update rewrites the resume and replaces its child rows in one transaction.
func (r *PGRepo) Update(ctx context.Context, res Resume) (Resume, error) {
	skills, certs, err := encodeLists(res.Content)
	if err != nil {
		return Resume{}, err
	}
	const query = `
UPDATE resumes SET
  title = $3, description = $4, photo_url = $5, color_hex = $6, border_style = $7, summary = $8,
  first_name = $9, last_name = $10, job_title = $11, city = $12, country = $13, phone = $14,
  email = $15, birth_date = $16, gender = $17, postal_code = $18, address = $19,
  nearest_station = $20, marital_status = $21, dependents = $22, commute_time = $23,
  desired_position = $24, desired_salary = $25, motivation = $26, health_condition = $27,
  skills = $28, certifications = $29, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING created_at, updated_at`
	args := append([]any{res.ID, res.UserID}, scalarArgs(res, skills, certs)...)
	err = db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&res.CreatedAt, &res.UpdatedAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("update resume: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM work_experiences WHERE resume_id = $1`, res.ID); err != nil {
			return fmt.Errorf("delete work experiences: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM educations WHERE resume_id = $1`, res.ID); err != nil {
			return fmt.Errorf("delete educations: %w", err)
		}
		return insertChildren(ctx, tx, res)
	})
	if err != nil {
		return Resume{}, err
	}
	return res, nil
}

func (r *PGRepo) ListByOwner(ctx context.Context, userID string) ([]Resume, error) {
	query := `SELECT ` + resumeColumns + `
FROM resumes
WHERE user_id = $1
ORDER BY updated_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Resume, 0)
	for rows.Next() {
		res, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadChildren(ctx, r.DB, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PGRepo) Delete(ctx context.Context, id, userID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	result, err := r.DB.ExecContext(ctx, `DELETE FROM resumes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *PGRepo) loadChildren(ctx context.Context, q queryer, res *Resume) error {
	rows, err := q.QueryContext(ctx, `
SELECT job_title, company, start_date, end_date, description
FROM work_experiences
WHERE resume_id = $1
ORDER BY position ASC`, res.ID)
	if err != nil {
		return err
	}
	res.WorkExperiences = make([]WorkExperience, 0)
	for rows.Next() {
		var w WorkExperience
		var position, company, start, end, desc sql.NullString
		if err := rows.Scan(&position, &company, &start, &end, &desc); err != nil {
			rows.Close()
			return err
		}
		w.Position, w.Company, w.StartDate, w.EndDate, w.Description = position.String, company.String, start.String, end.String, desc.String
		res.WorkExperiences = append(res.WorkExperiences, w)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	rows, err = q.QueryContext(ctx, `
SELECT degree, school, start_date, end_date
FROM educations
WHERE resume_id = $1
ORDER BY position ASC`, res.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	res.Educations = make([]Education, 0)
	for rows.Next() {
		var e Education
		var degree, school, start, end sql.NullString
		if err := rows.Scan(&degree, &school, &start, &end); err != nil {
			return err
		}
		e.Degree, e.School, e.StartDate, e.EndDate = degree.String, school.String, start.String, end.String
		res.Educations = append(res.Educations, e)
	}
	return rows.Err()
}

func insertChildren(ctx context.Context, tx *sql.Tx, res Resume) error {
	for i, w := range res.WorkExperiences {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO work_experiences (id, resume_id, position, job_title, company, start_date, end_date, description)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.NewString(), res.ID, i,
			nullableString(w.Position), nullableString(w.Company),
			nullableString(w.StartDate), nullableString(w.EndDate), nullableString(w.Description),
		); err != nil {
			return fmt.Errorf("insert work experience %d: %w", i, err)
		}
	}
	for i, e := range res.Educations {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO educations (id, resume_id, position, degree, school, start_date, end_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.NewString(), res.ID, i,
			nullableString(e.Degree), nullableString(e.School),
			nullableString(e.StartDate), nullableString(e.EndDate),
		); err != nil {
			return fmt.Errorf("insert education %d: %w", i, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResume(row rowScanner) (Resume, error) {
	var res Resume
	var (
		title, description, photoURL, summary                       sql.NullString
		firstName, lastName, jobTitle, city, country, phone, email  sql.NullString
		birthDate, gender, postalCode, address, station, marital    sql.NullString
		commute, desiredPosition, desiredSalary, motivation, health sql.NullString
		dependents                                                  sql.NullInt64
		colorHex, borderStyle                                       string
		skills, certs                                               []byte
	)
	err := row.Scan(
		&res.ID, &res.UserID, &title, &description, &photoURL, &colorHex, &borderStyle, &summary,
		&firstName, &lastName, &jobTitle, &city, &country, &phone, &email, &birthDate, &gender, &postalCode,
		&address, &station, &marital, &dependents, &commute, &desiredPosition,
		&desiredSalary, &motivation, &health, &skills, &certs, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return Resume{}, err
	}
	if photoURL.Valid {
		u := photoURL.String
		res.PhotoURL = &u
	}
	res.Title, res.Description, res.Summary = title.String, description.String, summary.String
	res.ColorHex, res.BorderStyle = colorHex, BorderStyle(borderStyle)
	p := &res.PersonalInfo
	p.FirstName, p.LastName, p.JobTitle = firstName.String, lastName.String, jobTitle.String
	p.City, p.Country, p.Phone, p.Email = city.String, country.String, phone.String, email.String
	p.BirthDate, p.Gender, p.PostalCode, p.Address = birthDate.String, gender.String, postalCode.String, address.String
	p.NearestStation, p.MaritalStatus, p.CommuteTime = station.String, marital.String, commute.String
	p.DesiredPosition, p.DesiredSalary, p.Motivation, p.HealthCondition = desiredPosition.String, desiredSalary.String, motivation.String, health.String
	if dependents.Valid {
		d := int(dependents.Int64)
		p.Dependents = &d
	}
	if err := decodeList(skills, &res.Skills); err != nil {
		return Resume{}, fmt.Errorf("decode skills: %w", err)
	}
	if err := decodeList(certs, &res.Certifications); err != nil {
		return Resume{}, fmt.Errorf("decode certifications: %w", err)
	}
	return res, nil
}

func scalarArgs(res Resume, skills, certs []byte) []any {
	p := res.PersonalInfo
	var photo any
	if res.PhotoURL != nil {
		photo = *res.PhotoURL
	}
	var dependents any
	if p.Dependents != nil {
		dependents = *p.Dependents
	}
	return []any{
		nullableString(res.Title), nullableString(res.Description), photo,
		res.ColorHex, string(res.BorderStyle), nullableString(res.Summary),
		nullableString(p.FirstName), nullableString(p.LastName), nullableString(p.JobTitle),
		nullableString(p.City), nullableString(p.Country), nullableString(p.Phone),
		nullableString(p.Email), nullableString(p.BirthDate), nullableString(p.Gender),
		nullableString(p.PostalCode), nullableString(p.Address), nullableString(p.NearestStation),
		nullableString(p.MaritalStatus), dependents, nullableString(p.CommuteTime),
		nullableString(p.DesiredPosition), nullableString(p.DesiredSalary),
		nullableString(p.Motivation), nullableString(p.HealthCondition),
		string(skills), string(certs),
	}
}

func encodeLists(c Content) ([]byte, []byte, error) {
	skills, err := json.Marshal(nonNil(c.Skills))
	if err != nil {
		return nil, nil, err
	}
	certs, err := json.Marshal(nonNil(c.Certifications))
	if err != nil {
		return nil, nil, err
	}
	return skills, certs, nil
}

func decodeList(raw []byte, dst *[]string) error {
	*dst = []string{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
