package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/raidgate/internal/gameserver/clan"
	"github.com/udisondev/raidgate/internal/model"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// ClanRepository handles clan persistence to PostgreSQL and answers
// membership queries directly from it.
type ClanRepository struct {
	pool *pgxpool.Pool
}

// NewClanRepository creates a new clan repository.
func NewClanRepository(pool *pgxpool.Pool) *ClanRepository {
	return &ClanRepository{pool: pool}
}

// ClanRow represents a clans row.
type ClanRow struct {
	ClanID   int32
	Name     string
	LeaderID int64
	AllyID   int32
}

// ClanMemberRow represents a clan_members row.
type ClanMemberRow struct {
	CharacterID int64
	ClanID      int32
}

// LoadAllClans loads all clans from the database.
func (r *ClanRepository) LoadAllClans(ctx context.Context) ([]ClanRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT clan_id, name, leader_id, ally_id FROM clans ORDER BY clan_id`)
	if err != nil {
		return nil, fmt.Errorf("query clans: %w", err)
	}
	defer rows.Close()

	var result []ClanRow
	for rows.Next() {
		var c ClanRow
		if err := rows.Scan(&c.ClanID, &c.Name, &c.LeaderID, &c.AllyID); err != nil {
			return nil, fmt.Errorf("scan clans: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// LoadAllMembers loads every clan membership.
func (r *ClanRepository) LoadAllMembers(ctx context.Context) ([]ClanMemberRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT character_id, clan_id FROM clan_members ORDER BY clan_id, character_id`)
	if err != nil {
		return nil, fmt.Errorf("query clan_members: %w", err)
	}
	defer rows.Close()

	var result []ClanMemberRow
	for rows.Next() {
		var m ClanMemberRow
		if err := rows.Scan(&m.CharacterID, &m.ClanID); err != nil {
			return nil, fmt.Errorf("scan clan_members: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// LoadSnapshots loads all clans with their members, ready for clan.Table.Upsert.
func (r *ClanRepository) LoadSnapshots(ctx context.Context) ([]clan.Snapshot, error) {
	clans, err := r.LoadAllClans(ctx)
	if err != nil {
		return nil, err
	}
	members, err := r.LoadAllMembers(ctx)
	if err != nil {
		return nil, err
	}

	byClan := make(map[int32][]model.PlayerID, len(clans))
	for _, m := range members {
		byClan[m.ClanID] = append(byClan[m.ClanID], model.PlayerID(m.CharacterID))
	}

	result := make([]clan.Snapshot, 0, len(clans))
	for _, c := range clans {
		result = append(result, clan.Snapshot{
			ID:       c.ClanID,
			Name:     c.Name,
			LeaderID: model.PlayerID(c.LeaderID),
			AllyID:   c.AllyID,
			Members:  byClan[c.ClanID],
		})
	}
	return result, nil
}

// LoadInto fills the table with every stored clan. Returns the number loaded.
func (r *ClanRepository) LoadInto(ctx context.Context, t *clan.Table) (int, error) {
	snaps, err := r.LoadSnapshots(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading clans: %w", err)
	}
	for _, s := range snaps {
		if err := t.Upsert(s); err != nil {
			return 0, fmt.Errorf("loading clan %d: %w", s.ID, err)
		}
	}
	return len(snaps), nil
}

// SaveClan inserts or replaces a clan and its roster. Members are moved out
// of any other clan.
func (r *ClanRepository) SaveClan(ctx context.Context, s clan.Snapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO clans (clan_id, name, leader_id, ally_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (clan_id) DO UPDATE
		 SET name = EXCLUDED.name, leader_id = EXCLUDED.leader_id, ally_id = EXCLUDED.ally_id`,
		s.ID, s.Name, int64(s.LeaderID), s.AllyID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("save clan %d: %w", s.ID, clan.ErrClanNameTaken)
		}
		return fmt.Errorf("save clan %d: %w", s.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM clan_members WHERE clan_id = $1`, s.ID); err != nil {
		return fmt.Errorf("clear clan %d members: %w", s.ID, err)
	}

	members := s.Members
	if s.LeaderID != 0 {
		members = append([]model.PlayerID{s.LeaderID}, members...)
	}

	batch := &pgx.Batch{}
	for _, id := range members {
		batch.Queue(
			`INSERT INTO clan_members (character_id, clan_id) VALUES ($1, $2)
			 ON CONFLICT (character_id) DO UPDATE SET clan_id = EXCLUDED.clan_id`,
			int64(id), s.ID)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save clan %d members: %w", s.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit clan %d: %w", s.ID, err)
	}
	return nil
}

// DeleteClan removes a clan. Members are removed by cascade.
func (r *ClanRepository) DeleteClan(ctx context.Context, clanID int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clans WHERE clan_id = $1`, clanID)
	if err != nil {
		return fmt.Errorf("delete clan %d: %w", clanID, err)
	}
	if tag.RowsAffected() == 0 {
		return clan.ErrClanNotFound
	}
	return nil
}

// IsMemberOrAlly reports whether attackerID shares a clan with ownerID or
// belongs to a clan allied with it.
func (r *ClanRepository) IsMemberOrAlly(ctx context.Context, ownerID, attackerID model.PlayerID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1
		     FROM clan_members o
		     JOIN clans oc ON oc.clan_id = o.clan_id
		     JOIN clan_members a ON a.character_id = $2
		     JOIN clans ac ON ac.clan_id = a.clan_id
		     WHERE o.character_id = $1
		       AND (o.clan_id = a.clan_id OR (oc.ally_id <> 0 AND oc.ally_id = ac.ally_id))
		 )`,
		int64(ownerID), int64(attackerID),
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("query clan relation %d/%d: %w", ownerID, attackerID, err)
	}
	return ok, nil
}
