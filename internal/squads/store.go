package squads

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store provides persistent storage for squads.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the squad database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open squad database: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate squad tables: %w", err)
	}
	return store, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the squad tables.
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS squads (
			server TEXT NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (server, name)
		)`,
		`CREATE TABLE IF NOT EXISTS squad_members (
			server TEXT NOT NULL,
			squad TEXT NOT NULL,
			member TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (server, squad, member),
			FOREIGN KEY (server, squad) REFERENCES squads(server, name) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_squad_members_squad ON squad_members(server, squad)`,
	}
	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// get returns a squad with its members in insertion order, or nil when it
// does not exist.
func (s *Store) get(server, name string) (*Squad, error) {
	var found string
	err := s.db.QueryRow(`SELECT name FROM squads WHERE server = ? AND name = ?`, server, name).Scan(&found)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT member FROM squad_members
		WHERE server = ? AND squad = ?
		ORDER BY position
	`, server, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	squad := &Squad{Server: server, Name: name}
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, err
		}
		squad.Members = append(squad.Members, member)
	}
	return squad, rows.Err()
}

// list returns all squads for a server, ordered by name.
func (s *Store) list(server string) ([]*Squad, error) {
	rows, err := s.db.Query(`SELECT name FROM squads WHERE server = ? ORDER BY name`, server)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var squads []*Squad
	for _, name := range names {
		squad, err := s.get(server, name)
		if err != nil {
			return nil, err
		}
		squads = append(squads, squad)
	}
	return squads, nil
}

// replace writes a squad's member list wholesale inside one transaction.
func (s *Store) replace(server, name string, members []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO squads (server, name) VALUES (?, ?)`, server, name); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM squad_members WHERE server = ? AND squad = ?`, server, name); err != nil {
		return err
	}
	for i, member := range members {
		if _, err := tx.Exec(`
			INSERT INTO squad_members (server, squad, member, position)
			VALUES (?, ?, ?, ?)
		`, server, name, member, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// delete removes a squad and its members. Returns whether it existed.
func (s *Store) delete(server, name string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM squad_members WHERE server = ? AND squad = ?`, server, name); err != nil {
		return false, err
	}
	res, err := tx.Exec(`DELETE FROM squads WHERE server = ? AND name = ?`, server, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

// rename changes a squad's name in both tables inside one transaction.
func (s *Store) rename(server, oldName, newName string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`UPDATE squads SET name = ? WHERE server = ? AND name = ?`, newName, server, oldName); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE squad_members SET squad = ? WHERE server = ? AND squad = ?`, newName, server, oldName); err != nil {
		return err
	}
	return tx.Commit()
}
