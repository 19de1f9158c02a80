// Package sqlite implements the store on SQLite via the pure-Go
// modernc driver. Scalar fields map to typed columns; month lists,
// ledgers and card installment plans are stored as JSON text.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"

	"fintrack/internal/core"
)

// Singleton documents live in app_state under these keys.
const (
	stateIncomeProfile  = "income_profile"
	stateSettings       = "settings"
	stateBudgetRule     = "budget_rule"
	stateCategoryConfig = "category_config"
)

type Store struct {
	db *sql.DB
}

// New opens (and if necessary creates) the database at dbPath and
// brings its schema up to date.
func New(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Expense operations

const selectExpense = `SELECT id, title, category, amount_cents, date, description,
	budget_month, budget_year, recurring_id, is_recurring FROM expenses`

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO expenses
		(id, title, category, amount_cents, date, description, budget_month, budget_year, recurring_id, is_recurring)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Category, e.Amount.Cents, e.Date.String(), e.Description,
		e.BudgetMonth, e.BudgetYear, e.RecurringID, e.IsRecurring)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "expense saved",
		"id", e.ID,
		"title", e.Title,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())

	return e, nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := s.db.QueryRowContext(ctx, selectExpense+` WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := s.db.ExecContext(ctx, `UPDATE expenses SET
		title = ?, category = ?, amount_cents = ?, date = ?, description = ?,
		budget_month = ?, budget_year = ?, recurring_id = ?, is_recurring = ?
		WHERE id = ?`,
		e.Title, e.Category, e.Amount.Cents, e.Date.String(), e.Description,
		e.BudgetMonth, e.BudgetYear, e.RecurringID, e.IsRecurring, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireAffected(res, "expense", e.ID)
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireAffected(res, "expense", id)
}

func (s *Store) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx, selectExpense+` ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

func (s *Store) ListExpensesByMonth(ctx context.Context, year, month int) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		selectExpense+` WHERE substr(date, 1, 7) = ? ORDER BY date, id`,
		string(core.MonthKeyFor(year, month)))
	if err != nil {
		return nil, fmt.Errorf("list expenses by month: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e    core.Expense
		date string
	)
	err := row.Scan(&e.ID, &e.Title, &e.Category, &e.Amount.Cents, &date, &e.Description,
		&e.BudgetMonth, &e.BudgetYear, &e.RecurringID, &e.IsRecurring)
	if err != nil {
		return core.Expense{}, err
	}
	if e.Date, err = parseDate(date); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	result := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return result, nil
}

// Recurring definition operations

const selectDefinition = `SELECT id, name, category, amount_cents, frequency, day, months,
	description, end_date, active, added_to_expenses, created_at FROM recurring_definitions`

func (s *Store) CreateRecurringDefinition(ctx context.Context, def core.RecurringDefinition) (core.RecurringDefinition, error) {
	if def.ID == "" {
		def.ID = uuid.New().String()
	}
	if def.AddedToExpenses == nil {
		def.AddedToExpenses = core.NewMonthSet()
	}

	months, ledger, err := marshalDefinitionJSON(def)
	if err != nil {
		return core.RecurringDefinition{}, fmt.Errorf("create recurring definition: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO recurring_definitions
		(id, name, category, amount_cents, frequency, day, months, description, end_date, active, added_to_expenses, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.ID, def.Name, def.Category, def.Amount.Cents, string(def.Frequency), def.Day,
		months, def.Description, def.EndDate.String(), def.Active, ledger, def.CreatedAt.String())
	if err != nil {
		return core.RecurringDefinition{}, fmt.Errorf("create recurring definition: %w", err)
	}

	return def, nil
}

func (s *Store) GetRecurringDefinition(ctx context.Context, id string) (core.RecurringDefinition, error) {
	row := s.db.QueryRowContext(ctx, selectDefinition+` WHERE id = ?`, id)
	def, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringDefinition{}, fmt.Errorf("recurring definition %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.RecurringDefinition{}, fmt.Errorf("get recurring definition: %w", err)
	}
	return def, nil
}

func (s *Store) UpdateRecurringDefinition(ctx context.Context, def core.RecurringDefinition) error {
	months, ledger, err := marshalDefinitionJSON(def)
	if err != nil {
		return fmt.Errorf("update recurring definition: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE recurring_definitions SET
		name = ?, category = ?, amount_cents = ?, frequency = ?, day = ?, months = ?,
		description = ?, end_date = ?, active = ?, added_to_expenses = ?, created_at = ?
		WHERE id = ?`,
		def.Name, def.Category, def.Amount.Cents, string(def.Frequency), def.Day, months,
		def.Description, def.EndDate.String(), def.Active, ledger, def.CreatedAt.String(), def.ID)
	if err != nil {
		return fmt.Errorf("update recurring definition: %w", err)
	}
	return requireAffected(res, "recurring definition", def.ID)
}

func (s *Store) UpdateRecurringCategory(ctx context.Context, id, category string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin category update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE recurring_definitions SET category = ? WHERE id = ?`, category, id)
	if err != nil {
		return 0, fmt.Errorf("update definition category: %w", err)
	}
	if err := requireAffected(res, "recurring definition", id); err != nil {
		return 0, err
	}

	// Only expenses materialized from this definition follow along.
	res, err = tx.ExecContext(ctx,
		`UPDATE expenses SET category = ? WHERE recurring_id = ?`, category, id)
	if err != nil {
		return 0, fmt.Errorf("cascade expense category: %w", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cascaded expenses: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit category update: %w", err)
	}
	return int(updated), nil
}

func (s *Store) DeleteRecurringDefinition(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recurring_definitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring definition: %w", err)
	}
	return requireAffected(res, "recurring definition", id)
}

func (s *Store) ListRecurringDefinitions(ctx context.Context) ([]core.RecurringDefinition, error) {
	rows, err := s.db.QueryContext(ctx, selectDefinition+` ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list recurring definitions: %w", err)
	}
	defer rows.Close()

	result := make([]core.RecurringDefinition, 0)
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring definition: %w", err)
		}
		result = append(result, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring definitions: %w", err)
	}
	return result, nil
}

func marshalDefinitionJSON(def core.RecurringDefinition) (months, ledger string, err error) {
	if def.Months == nil {
		def.Months = []int{}
	}
	monthsRaw, err := json.Marshal(def.Months)
	if err != nil {
		return "", "", fmt.Errorf("marshal months: %w", err)
	}
	ledgerRaw, err := json.Marshal(def.AddedToExpenses)
	if err != nil {
		return "", "", fmt.Errorf("marshal ledger: %w", err)
	}
	return string(monthsRaw), string(ledgerRaw), nil
}

func scanDefinition(row interface{ Scan(...any) error }) (core.RecurringDefinition, error) {
	var (
		def       core.RecurringDefinition
		frequency string
		months    string
		endDate   string
		ledger    string
		createdAt string
	)
	err := row.Scan(&def.ID, &def.Name, &def.Category, &def.Amount.Cents, &frequency, &def.Day,
		&months, &def.Description, &endDate, &def.Active, &ledger, &createdAt)
	if err != nil {
		return core.RecurringDefinition{}, err
	}

	def.Frequency = core.Frequency(frequency)
	if err := json.Unmarshal([]byte(months), &def.Months); err != nil {
		return core.RecurringDefinition{}, fmt.Errorf("parse months: %w", err)
	}
	if err := json.Unmarshal([]byte(ledger), &def.AddedToExpenses); err != nil {
		return core.RecurringDefinition{}, fmt.Errorf("parse ledger: %w", err)
	}
	if def.EndDate, err = parseDate(endDate); err != nil {
		return core.RecurringDefinition{}, err
	}
	if def.CreatedAt, err = parseDate(createdAt); err != nil {
		return core.RecurringDefinition{}, err
	}
	return def, nil
}

func (s *Store) AddDismissal(ctx context.Context, dm core.Dismissal) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO dismissals (recurring_id, name, date, amount_cents)
		VALUES (?, ?, ?, ?)`,
		dm.RecurringID, dm.Name, dm.Date.String(), dm.Amount.Cents)
	if err != nil {
		return fmt.Errorf("add dismissal: %w", err)
	}
	return nil
}

func (s *Store) ListDismissals(ctx context.Context) ([]core.Dismissal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT recurring_id, name, date, amount_cents FROM dismissals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list dismissals: %w", err)
	}
	defer rows.Close()

	result := make([]core.Dismissal, 0)
	for rows.Next() {
		var (
			dm   core.Dismissal
			date string
		)
		if err := rows.Scan(&dm.RecurringID, &dm.Name, &date, &dm.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan dismissal: %w", err)
		}
		if dm.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		result = append(result, dm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dismissals: %w", err)
	}
	return result, nil
}

// Loan operations

const selectLoan = `SELECT id, name, type, principal_cents, rate_bps, tenure_months,
	emi_amount_cents, first_emi_date, status FROM loans`

func (s *Store) CreateLoan(ctx context.Context, l core.Loan) (core.Loan, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Status == "" {
		l.Status = core.LoanActive
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO loans
		(id, name, type, principal_cents, rate_bps, tenure_months, emi_amount_cents, first_emi_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, string(l.Type), l.Principal.Cents, l.RateBps, l.TenureMonths,
		l.EMIAmount.Cents, l.FirstEMIDate.String(), string(l.Status))
	if err != nil {
		return core.Loan{}, fmt.Errorf("create loan: %w", err)
	}
	return l, nil
}

func (s *Store) GetLoan(ctx context.Context, id string) (core.Loan, error) {
	row := s.db.QueryRowContext(ctx, selectLoan+` WHERE id = ?`, id)
	l, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Loan{}, fmt.Errorf("loan %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Loan{}, fmt.Errorf("get loan: %w", err)
	}
	return l, nil
}

func (s *Store) UpdateLoan(ctx context.Context, l core.Loan) error {
	res, err := s.db.ExecContext(ctx, `UPDATE loans SET
		name = ?, type = ?, principal_cents = ?, rate_bps = ?, tenure_months = ?,
		emi_amount_cents = ?, first_emi_date = ?, status = ?
		WHERE id = ?`,
		l.Name, string(l.Type), l.Principal.Cents, l.RateBps, l.TenureMonths,
		l.EMIAmount.Cents, l.FirstEMIDate.String(), string(l.Status), l.ID)
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	return requireAffected(res, "loan", l.ID)
}

func (s *Store) DeleteLoan(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM loans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	return requireAffected(res, "loan", id)
}

func (s *Store) ListLoans(ctx context.Context) ([]core.Loan, error) {
	rows, err := s.db.QueryContext(ctx, selectLoan+` ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	result := make([]core.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loans: %w", err)
	}
	return result, nil
}

func scanLoan(row interface{ Scan(...any) error }) (core.Loan, error) {
	var (
		l            core.Loan
		loanType     string
		firstEMIDate string
		status       string
	)
	err := row.Scan(&l.ID, &l.Name, &loanType, &l.Principal.Cents, &l.RateBps, &l.TenureMonths,
		&l.EMIAmount.Cents, &firstEMIDate, &status)
	if err != nil {
		return core.Loan{}, err
	}
	l.Type = core.LoanType(loanType)
	l.Status = core.LoanStatus(status)
	if l.FirstEMIDate, err = parseDate(firstEMIDate); err != nil {
		return core.Loan{}, err
	}
	return l, nil
}

func (s *Store) CreateCard(ctx context.Context, c core.Card) (core.Card, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	emis, err := marshalEMIs(c.EMIs)
	if err != nil {
		return core.Card{}, fmt.Errorf("create card: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO cards (id, name, emis) VALUES (?, ?, ?)`,
		c.ID, c.Name, emis)
	if err != nil {
		return core.Card{}, fmt.Errorf("create card: %w", err)
	}
	return c, nil
}

func (s *Store) UpdateCard(ctx context.Context, c core.Card) error {
	emis, err := marshalEMIs(c.EMIs)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE cards SET name = ?, emis = ? WHERE id = ?`,
		c.Name, emis, c.ID)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return requireAffected(res, "card", c.ID)
}

func (s *Store) ListCards(ctx context.Context) ([]core.Card, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, emis FROM cards ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	result := make([]core.Card, 0)
	for rows.Next() {
		var (
			c    core.Card
			emis string
		)
		if err := rows.Scan(&c.ID, &c.Name, &emis); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		if err := json.Unmarshal([]byte(emis), &c.EMIs); err != nil {
			return nil, fmt.Errorf("parse card emis: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return result, nil
}

func marshalEMIs(emis []core.CardEMI) (string, error) {
	if emis == nil {
		emis = []core.CardEMI{}
	}
	raw, err := json.Marshal(emis)
	if err != nil {
		return "", fmt.Errorf("marshal emis: %w", err)
	}
	return string(raw), nil
}

// Investment operations

func (s *Store) CreateInvestment(ctx context.Context, inv core.Investment) (core.Investment, error) {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO investments
		(id, type, date, amount_cents, price_cents, quantity, currency, income_month, income_year)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, string(inv.Type), inv.Date.String(), inv.Amount.Cents, inv.Price.Cents,
		inv.Quantity, inv.Currency, inv.IncomeMonth, inv.IncomeYear)
	if err != nil {
		return core.Investment{}, fmt.Errorf("create investment: %w", err)
	}
	return inv, nil
}

func (s *Store) DeleteInvestment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM investments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	return requireAffected(res, "investment", id)
}

func (s *Store) ListInvestments(ctx context.Context) ([]core.Investment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, type, date, amount_cents, price_cents,
		quantity, currency, income_month, income_year FROM investments ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	defer rows.Close()

	result := make([]core.Investment, 0)
	for rows.Next() {
		var (
			inv     core.Investment
			invType string
			date    string
		)
		err := rows.Scan(&inv.ID, &invType, &date, &inv.Amount.Cents, &inv.Price.Cents,
			&inv.Quantity, &inv.Currency, &inv.IncomeMonth, &inv.IncomeYear)
		if err != nil {
			return nil, fmt.Errorf("scan investment: %w", err)
		}
		inv.Type = core.InvestmentType(invType)
		if inv.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate investments: %w", err)
	}
	return result, nil
}

// Income operations

func (s *Store) UpsertSalary(ctx context.Context, sal core.Salary) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO salaries (year, month, amount_cents)
		VALUES (?, ?, ?)
		ON CONFLICT(year, month) DO UPDATE SET amount_cents = excluded.amount_cents`,
		sal.Year, sal.Month, sal.Amount.Cents)
	if err != nil {
		return fmt.Errorf("upsert salary: %w", err)
	}
	return nil
}

func (s *Store) ListSalaries(ctx context.Context) ([]core.Salary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT year, month, amount_cents FROM salaries ORDER BY year, month`)
	if err != nil {
		return nil, fmt.Errorf("list salaries: %w", err)
	}
	defer rows.Close()

	result := make([]core.Salary, 0)
	for rows.Next() {
		var sal core.Salary
		if err := rows.Scan(&sal.Year, &sal.Month, &sal.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan salary: %w", err)
		}
		result = append(result, sal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate salaries: %w", err)
	}
	return result, nil
}

func (s *Store) GetIncomeProfile(ctx context.Context) (core.IncomeProfile, error) {
	var p core.IncomeProfile
	if _, err := s.getState(ctx, stateIncomeProfile, &p); err != nil {
		return core.IncomeProfile{}, err
	}
	return p, nil
}

func (s *Store) SetIncomeProfile(ctx context.Context, p core.IncomeProfile) error {
	return s.putState(ctx, stateIncomeProfile, p)
}

// Settings operations

func (s *Store) GetSettings(ctx context.Context) (core.Settings, error) {
	var settings core.Settings
	found, err := s.getState(ctx, stateSettings, &settings)
	if err != nil {
		return core.Settings{}, err
	}
	if !found {
		return core.DefaultSettings(), nil
	}
	return settings, nil
}

func (s *Store) SetSettings(ctx context.Context, settings core.Settings) error {
	return s.putState(ctx, stateSettings, settings)
}

func (s *Store) GetBudgetRule(ctx context.Context) (core.BudgetRule, error) {
	var rule core.BudgetRule
	found, err := s.getState(ctx, stateBudgetRule, &rule)
	if err != nil {
		return core.BudgetRule{}, err
	}
	if !found {
		return core.DefaultBudgetRule(), nil
	}
	return rule, nil
}

func (s *Store) SetBudgetRule(ctx context.Context, rule core.BudgetRule) error {
	return s.putState(ctx, stateBudgetRule, rule)
}

func (s *Store) GetCategoryConfig(ctx context.Context) (core.CategoryConfig, error) {
	var cfg core.CategoryConfig
	found, err := s.getState(ctx, stateCategoryConfig, &cfg)
	if err != nil {
		return core.CategoryConfig{}, err
	}
	if !found {
		return core.DefaultCategoryConfig(), nil
	}
	return cfg, nil
}

func (s *Store) SetCategoryConfig(ctx context.Context, cfg core.CategoryConfig) error {
	return s.putState(ctx, stateCategoryConfig, cfg)
}

// Chat operations

func (s *Store) AppendChatMessage(ctx context.Context, msg core.ChatMessage) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO chat_messages (role, content, at) VALUES (?, ?, ?)`,
		string(msg.Role), msg.Content, msg.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

func (s *Store) ListChatMessages(ctx context.Context) ([]core.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT role, content, at FROM chat_messages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	result := make([]core.ChatMessage, 0)
	for rows.Next() {
		var (
			msg  core.ChatMessage
			role string
			at   string
		)
		if err := rows.Scan(&role, &msg.Content, &at); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msg.Role = core.ChatRole(role)
		if msg.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse chat timestamp: %w", err)
		}
		result = append(result, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return result, nil
}

// Helpers

func (s *Store) getState(ctx context.Context, key string, v any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get app state %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("parse app state %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) putState(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal app state %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO app_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, string(raw))
	if err != nil {
		return fmt.Errorf("put app state %s: %w", key, err)
	}
	return nil
}

// requireAffected turns a zero-row write into a not-found error.
func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	return nil
}

func parseDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.DateOf(t), nil
}
