package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrEthical07/phoneauth/internal/dbx"
	"github.com/MrEthical07/phoneauth/permission"
	"github.com/MrEthical07/phoneauth/users/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const (
	uniqueViolation     = "23505"
	phoneConstraint     = "users_phone_key"
	telegramConstraint  = "users_tg_id_key"
	selectUserColumns   = `id, phone, password, role, tg_id, first_name, surname, patronymic, gender, birthdate, created_at, updated_at`
	liveUserRestriction = `deleted_at IS NULL`
)

// PostgresRepository is a Repository backed by the users table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository wraps an open pgx-backed *sql.DB.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Open opens a pgx-backed database/sql pool and verifies connectivity.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}

// Create inserts user inside a transaction that first checks phone and
// telegram id uniqueness. The unique constraints remain the final arbiter
// under concurrent inserts.
func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {
	created := cloneUser(user)

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE phone = $1)`,
			user.Phone,
		).Scan(&exists); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if exists {
			return ErrPhoneTaken
		}

		if user.TelegramID != nil {
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM users WHERE tg_id = $1)`,
				*user.TelegramID,
			).Scan(&exists); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
			if exists {
				return ErrTelegramTaken
			}
		}

		query :=
			`INSERT INTO users (phone, password, role, tg_id, first_name, surname, patronymic, gender, birthdate)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id, created_at, updated_at`

		err := tx.QueryRowContext(ctx, query,
			user.Phone,
			user.PasswordHash,
			string(user.Role),
			user.TelegramID,
			user.FirstName,
			user.Surname,
			user.Patronymic,
			genderArg(user.Gender),
			user.Birthdate,
		).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
		if err != nil {
			return mapWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetByID returns the live user with id, or ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, `SELECT `+selectUserColumns+` FROM users WHERE id = $1 AND `+liveUserRestriction, id)
}

func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return r.getOne(ctx, `SELECT `+selectUserColumns+` FROM users WHERE phone = $1 AND `+liveUserRestriction, phone)
}

func (r *PostgresRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	return r.getOne(ctx, `SELECT `+selectUserColumns+` FROM users WHERE tg_id = $1 AND `+liveUserRestriction, telegramID)
}

// Update applies the non-nil fields of upd.
func (r *PostgresRepository) Update(ctx context.Context, id string, upd ProfileUpdate) (*User, error) {
	query :=
		`UPDATE users SET
			tg_id = COALESCE($2, tg_id),
			first_name = COALESCE($3, first_name),
			surname = COALESCE($4, surname),
			patronymic = COALESCE($5, patronymic),
			gender = COALESCE($6, gender),
			birthdate = COALESCE($7, birthdate),
			updated_at = now()
		 WHERE id = $1 AND ` + liveUserRestriction + `
		 RETURNING ` + selectUserColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query,
		id,
		upd.TelegramID,
		upd.FirstName,
		upd.Surname,
		upd.Patronymic,
		genderArg(upd.Gender),
		upd.Birthdate,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapWriteError(err)
	}
	return u, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u          User
		role       string
		tgID       sql.NullInt64
		firstName  sql.NullString
		surname    sql.NullString
		patronymic sql.NullString
		gender     sql.NullString
		birthdate  sql.NullTime
	)

	err := row.Scan(
		&u.ID,
		&u.Phone,
		&u.PasswordHash,
		&role,
		&tgID,
		&firstName,
		&surname,
		&patronymic,
		&gender,
		&birthdate,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Role = permission.Role(role)
	if tgID.Valid {
		u.TelegramID = &tgID.Int64
	}
	u.FirstName = nullString(firstName)
	u.Surname = nullString(surname)
	u.Patronymic = nullString(patronymic)
	if gender.Valid {
		g := Gender(gender.String)
		u.Gender = &g
	}
	if birthdate.Valid {
		u.Birthdate = &birthdate.Time
	}

	return &u, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func genderArg(g *Gender) any {
	if g == nil {
		return nil
	}
	return string(*g)
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case phoneConstraint:
			return ErrPhoneTaken
		case telegramConstraint:
			return ErrTelegramTaken
		}
	}
	return fmt.Errorf("db error: %w", err)
}
