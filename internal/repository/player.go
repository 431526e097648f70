package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var ErrInvalidRole = errors.New("role must be user or admin")

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

type Player struct {
	PlayerId     int64     `json:"player_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreatePlayerParams struct {
	Username     string
	Email        string
	PasswordHash []byte
}

func (q *Queries) CreatePlayer(ctx context.Context, params CreatePlayerParams) (*Player, error) {
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO player (username, email, password_hash)
		VALUES (@username, @email, @password_hash)
		RETURNING *;`,
		pgx.NamedArgs{
			"username":      params.Username,
			"email":         params.Email,
			"password_hash": params.PasswordHash,
		},
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Player])
}

func (q *Queries) fetchPlayerBy(ctx context.Context, column string, value any) (*Player, error) {
	rows, _ := q.db.Query(
		ctx, "SELECT * FROM player WHERE "+column+" = $1", value,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Player])
}

func (q *Queries) FetchPlayer(ctx context.Context, playerId int64) (*Player, error) {
	return q.fetchPlayerBy(ctx, "player_id", playerId)
}

func (q *Queries) FetchPlayerByUsername(ctx context.Context, username string) (*Player, error) {
	return q.fetchPlayerBy(ctx, "username", username)
}

func (q *Queries) FetchPlayerByEmail(ctx context.Context, email string) (*Player, error) {
	return q.fetchPlayerBy(ctx, "email", email)
}

type UpdatePlayerParams struct {
	Username *string
	Email    *string
}

func (p UpdatePlayerParams) SetClause() (string, pgx.NamedArgs) {
	parts := make([]string, 0)
	args := pgx.NamedArgs{}

	if p.Username != nil {
		parts = append(parts, "username = @username")
		args["username"] = *p.Username
	}
	if p.Email != nil {
		parts = append(parts, "email = @email")
		args["email"] = *p.Email
	}

	return strings.Join(parts, ", "), args
}

// UpdatePlayerProfile changes the fields set in params. Uniqueness is left to
// the database, which reports a unique violation on conflict.
func (q *Queries) UpdatePlayerProfile(
	ctx context.Context, playerId int64, params UpdatePlayerParams,
) (*Player, error) {
	setClause, args := params.SetClause()
	if setClause == "" {
		return q.FetchPlayer(ctx, playerId)
	}
	args["player_id"] = playerId
	rows, _ := q.db.Query(
		ctx,
		"UPDATE player SET "+setClause+" WHERE player_id = @player_id RETURNING *",
		args,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Player])
}

func (q *Queries) UpdatePlayerPassword(ctx context.Context, playerId int64, hash []byte) error {
	tag, err := q.db.Exec(
		ctx,
		"UPDATE player SET password_hash = $2 WHERE player_id = $1",
		playerId, hash,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (q *Queries) ListPlayers(ctx context.Context) ([]Player, error) {
	rows, _ := q.db.Query(ctx, "SELECT * FROM player ORDER BY created_at DESC")
	return pgx.CollectRows(rows, pgx.RowToStructByName[Player])
}

func (q *Queries) updatePlayerRoleBy(
	ctx context.Context, column string, value any, role string,
) (*Player, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	rows, _ := q.db.Query(
		ctx,
		"UPDATE player SET role = $2 WHERE "+column+" = $1 RETURNING *",
		value, role,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Player])
}

func (q *Queries) UpdatePlayerRole(ctx context.Context, playerId int64, role string) (*Player, error) {
	return q.updatePlayerRoleBy(ctx, "player_id", playerId, role)
}

func (q *Queries) UpdatePlayerRoleByEmail(ctx context.Context, email, role string) (*Player, error) {
	return q.updatePlayerRoleBy(ctx, "email", email, role)
}

// DeletePlayer removes the player and every score they hold.
func (q *Queries) DeletePlayer(ctx context.Context, playerId int64) error {
	return q.WithTx(ctx, func(tx *Queries) error {
		if _, err := tx.db.Exec(ctx, "DELETE FROM score WHERE player_id = $1", playerId); err != nil {
			return err
		}
		tag, err := tx.db.Exec(ctx, "DELETE FROM player WHERE player_id = $1", playerId)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}
