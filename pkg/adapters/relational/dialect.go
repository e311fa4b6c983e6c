package relational

import (
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"  // postgres driver
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
	_ "github.com/microsoft/go-mssqldb" // sqlserver driver
	_ "modernc.org/sqlite"              // sqlite driver
)

// PlaceholderStyle is how a backend spells positional parameters.
type PlaceholderStyle int

// Placeholder styles.
const (
	PlaceholderQuestion PlaceholderStyle = iota // ?
	PlaceholderDollar                           // $1
	PlaceholderAtP                              // @p1
)

// Dialect holds what differs between SQL backends: the database/sql driver
// and connection string, identifier quoting, parameters and the handful of
// statements the adapter issues.
type Dialect struct {
	Name          string
	SQLDriver     string
	DefaultSchema string
	Placeholder   PlaceholderStyle

	// Identifier quoting, e.g. [ ] ]] for sqlserver.
	Quote, QuoteEnd, Escape string

	// TopOne selects a single row with TOP 1 instead of LIMIT 1.
	TopOne bool

	// AlterColumn is a format taking the table, the column and the new
	// type. Empty when the backend cannot alter a column.
	AlterColumn string

	// Unbounded is the text type used for sizes above MaxVarchar.
	Unbounded string

	// Truncate is a format taking the table.
	Truncate string

	// FieldSize selects (name, type, max length) per column. It takes the
	// schema and the table name as parameters, in that order unless
	// TableFirst is set.
	FieldSize  string
	TableFirst bool

	// DSN builds the connection string.
	DSN func(Options) string
}

// MaxVarchar is the largest column size written literally; bigger sizes use
// the dialect's unbounded keyword.
const MaxVarchar = 4000

// FormatPlaceholder returns the placeholder for a 1-based parameter index.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	case PlaceholderAtP:
		return "@p" + strconv.Itoa(index)
	default:
		return "?"
	}
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.QuoteEnd, d.Escape)
	return d.Quote + escaped + d.QuoteEnd
}

// Qualify splits table into schema and name, falling back to schema and
// then to the dialect's default schema.
func (d *Dialect) Qualify(table, schema string) (string, string) {
	if s, name, ok := strings.Cut(table, "."); ok {
		return s, name
	}
	if schema == "" {
		schema = d.DefaultSchema
	}
	return schema, table
}

// QualifiedName quotes table, prefixed by its schema when there is one.
func (d *Dialect) QualifiedName(table, schema string) string {
	s, name := d.Qualify(table, schema)
	if s == "" {
		return d.QuoteIdentifier(name)
	}
	return d.QuoteIdentifier(s) + "." + d.QuoteIdentifier(name)
}

// SelectOne returns a query reading at most one row of a quoted table.
func (d *Dialect) SelectOne(quoted string) string {
	if d.TopOne {
		return "SELECT TOP 1 * FROM " + quoted
	}
	return "SELECT * FROM " + quoted + " LIMIT 1"
}

// VarcharType renders a text column type of the given size, switching to
// the unbounded type above MaxVarchar.
func (d *Dialect) VarcharType(size int) string {
	if size > MaxVarchar {
		return d.Unbounded
	}
	return "VARCHAR(" + strconv.Itoa(size) + ")"
}

// Dialect registry
var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]*Dialect)
)

// RegisterDialect adds a dialect to the registry.
func RegisterDialect(d *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[strings.ToLower(d.Name)] = d
}

// GetDialect returns a dialect by name.
func GetDialect(name string) (*Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(name)]
	return d, ok
}

// ListDialects returns all registered dialect names (sorted).
func ListDialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterDialect(SQLServer)
	RegisterDialect(Postgres)
	RegisterDialect(SQLite)
	RegisterDialect(DuckDB)
}

// SQLServer reaches Microsoft SQL Server through go-mssqldb.
var SQLServer = &Dialect{
	Name:          "sqlserver",
	SQLDriver:     "sqlserver",
	DefaultSchema: "dbo",
	Placeholder:   PlaceholderAtP,
	Quote:         "[",
	QuoteEnd:      "]",
	Escape:        "]]",
	TopOne:        true,
	AlterColumn:   "ALTER TABLE %s ALTER COLUMN %s %s",
	Unbounded:     "VARCHAR(MAX)",
	Truncate:      "TRUNCATE TABLE %s",
	FieldSize: `SELECT column_name, data_type, character_maximum_length
FROM information_schema.columns
WHERE table_schema = @p1 AND table_name = @p2
ORDER BY ordinal_position`,
	DSN: sqlServerDSN,
}

// Postgres reaches PostgreSQL through the pgx stdlib driver.
var Postgres = &Dialect{
	Name:          "postgres",
	SQLDriver:     "pgx",
	DefaultSchema: "public",
	Placeholder:   PlaceholderDollar,
	Quote:         `"`,
	QuoteEnd:      `"`,
	Escape:        `""`,
	AlterColumn:   "ALTER TABLE %s ALTER COLUMN %s TYPE %s",
	Unbounded:     "TEXT",
	Truncate:      "TRUNCATE TABLE %s",
	FieldSize: `SELECT column_name, data_type, character_maximum_length
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`,
	DSN: postgresDSN,
}

// SQLite opens a database file through the pure Go modernc driver. SQLite
// has no column alteration, so Resize is unsupported.
var SQLite = &Dialect{
	Name:          "sqlite",
	SQLDriver:     "sqlite",
	DefaultSchema: "main",
	Placeholder:   PlaceholderQuestion,
	Quote:         `"`,
	QuoteEnd:      `"`,
	Escape:        `""`,
	Truncate:      "DELETE FROM %s",
	FieldSize:     `SELECT name, type, NULL FROM pragma_table_info(?, ?) ORDER BY cid`,
	TableFirst:    true,
	DSN:           fileDSN,
}

// DuckDB opens a database file, or an in-memory database when no
// database is given.
var DuckDB = &Dialect{
	Name:          "duckdb",
	SQLDriver:     "duckdb",
	DefaultSchema: "main",
	Placeholder:   PlaceholderQuestion,
	Quote:         `"`,
	QuoteEnd:      `"`,
	Escape:        `""`,
	AlterColumn:   "ALTER TABLE %s ALTER COLUMN %s TYPE %s",
	Unbounded:     "VARCHAR",
	Truncate:      "TRUNCATE %s",
	FieldSize: `SELECT column_name, data_type, character_maximum_length
FROM information_schema.columns
WHERE table_schema = ? AND table_name = ?
ORDER BY ordinal_position`,
	DSN: fileDSN,
}

// sqlServerDSN builds a sqlserver:// URL.
func sqlServerDSN(opts Options) string {
	host := opts.Host
	if host == "" {
		host = "localhost"
	}
	if opts.Port != 0 {
		host = net.JoinHostPort(host, strconv.Itoa(opts.Port))
	}

	q := url.Values{}
	if opts.Database != "" {
		q.Set("database", opts.Database)
	}
	for k, v := range opts.Params {
		q.Set(k, v)
	}

	u := url.URL{Scheme: "sqlserver", Host: host, RawQuery: q.Encode()}
	if opts.User != "" {
		u.User = url.UserPassword(opts.User, opts.Password)
	}
	return u.String()
}

// postgresDSN builds a key=value connection string.
func postgresDSN(opts Options) string {
	host := opts.Host
	if host == "" {
		host = "localhost"
	}
	port := opts.Port
	if port == 0 {
		port = 5432
	}
	sslmode := "disable"
	if mode, ok := opts.Params["sslmode"]; ok {
		sslmode = mode
	}

	pairs := []string{
		"host=" + dsnValue(host),
		"port=" + strconv.Itoa(port),
		"dbname=" + dsnValue(opts.Database),
		"sslmode=" + dsnValue(sslmode),
	}
	if opts.User != "" {
		pairs = append(pairs, "user="+dsnValue(opts.User))
	}
	if opts.Password != "" {
		pairs = append(pairs, "password="+dsnValue(opts.Password))
	}
	for _, k := range sortedParamKeys(opts.Params) {
		if k == "sslmode" {
			continue
		}
		pairs = append(pairs, k+"="+dsnValue(opts.Params[k]))
	}
	return strings.Join(pairs, " ")
}

// dsnValue single-quotes a key=value connection string value when it is
// empty or holds whitespace, a quote or a backslash.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n\r'\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// fileDSN uses the database as a file path, with params as a query string.
func fileDSN(opts Options) string {
	if len(opts.Params) == 0 {
		return opts.Database
	}
	q := url.Values{}
	for k, v := range opts.Params {
		q.Set(k, v)
	}
	return opts.Database + "?" + q.Encode()
}

func sortedParamKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
