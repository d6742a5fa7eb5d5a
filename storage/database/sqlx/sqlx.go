// Package sqlxrepos implements the repositories on Postgres.
package sqlxrepos

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core"
)

const (
	pqUniqueViolation = "23505"
	pqUndefinedTable  = "42P01"
	pqUndefinedColumn = "42703"
	pqAdminShutdown   = "57P01"
	pqCrashShutdown   = "57P02"
)

func pqCode(err error) string {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool { return pqCode(err) == pqUniqueViolation }
func isNoRows(err error) bool          { return errors.Cause(err) == sql.ErrNoRows }

// mapErr reports missing relations as core.ErrIndexUnavailable, since the schema is not migrated yet.
// A server going away is fatal to the process.
func mapErr(err error) error {
	switch pqCode(err) {
	case pqUndefinedTable, pqUndefinedColumn:
		return core.ErrIndexUnavailable
	case pqAdminShutdown, pqCrashShutdown:
		return core.NewShutdownError("database server is shutting down: " + err.Error())
	}
	if errors.Cause(err) == sql.ErrConnDone {
		return core.NewShutdownError("database connection closed")
	}
	return err
}

// where accumulates AND conditions with positional args.
type where struct {
	conds []string
	args  []interface{}
}

// add appends cond, replacing each "?" with the next positional placeholder.
func (w *where) add(cond string, args ...interface{}) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		cond = strings.Replace(cond, "?", "$"+strconv.Itoa(len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// build renders head, the WHERE clause, tail and the LIMIT clause. The limit is appended to
// w.args, so read w.args only after build returns.
func (w *where) build(head, tail string, limit int) string {
	return head + w.String() + tail + w.limit(limit)
}

// likePrefix escapes s for use as a LIKE prefix.
func likePrefix(s string) string {
	return likeEscaper.Replace(s) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// limit renders a LIMIT clause bound to the next placeholder. n <= 0 means no limit.
func (w *where) limit(n int) string {
	if n <= 0 {
		return ""
	}
	w.args = append(w.args, n)
	return " LIMIT $" + strconv.Itoa(len(w.args))
}
