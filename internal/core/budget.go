package core

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// DocumentVersion is the schema version written by this build.
const DocumentVersion = 2

// DefaultCategories seeds the registry of a new user.
var DefaultCategories = []string{
	"Rent/Mortgage", "Utilities", "Groceries", "Transport",
	"Entertainment", "Healthcare", "Insurance", "Savings",
	"Debt Repayment", "Dining Out", "Shopping", "Other",
}

// CascadePolicy controls what happens to stored amounts when a category is
// removed from the registry.
type CascadePolicy int

const (
	// CascadeDelete drops the category from every month.
	CascadeDelete CascadePolicy = iota
	// CascadeKeep leaves past amounts in place; they are pruned the next time
	// the month is viewed.
	CascadeKeep
)

// ParseCascadePolicy maps "delete" and "keep" to a policy.
func ParseCascadePolicy(s string) (CascadePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "delete":
		return CascadeDelete, nil
	case "keep":
		return CascadeKeep, nil
	default:
		return CascadeDelete, fmt.Errorf("unknown category cascade policy %q", s)
	}
}

func (p CascadePolicy) String() string {
	if p == CascadeKeep {
		return "keep"
	}
	return "delete"
}

// Registry is the ordered set of expense category names.
// Insertion order is display order.
type Registry struct {
	names []string
}

// NewRegistry builds a registry, skipping blank and duplicate names.
func NewRegistry(names ...string) Registry {
	var r Registry
	for _, n := range names {
		_ = r.Add(n)
	}
	return r
}

// Add appends a category. Names are trimmed and compared case-sensitively.
func (r *Registry) Add(name string) error {
	name, err := NormalizeCategoryName(name)
	if err != nil {
		return err
	}
	if r.Contains(name) {
		return ErrDuplicateCategory
	}
	r.names = append(r.names, name)
	return nil
}

// Remove deletes a category from the registry only.
func (r *Registry) Remove(name string) error {
	i := slices.Index(r.names, strings.TrimSpace(name))
	if i < 0 {
		return ErrCategoryNotFound
	}
	r.names = slices.Delete(r.names, i, i+1)
	return nil
}

func (r Registry) Contains(name string) bool {
	return slices.Contains(r.names, name)
}

// List returns a copy of the names in display order.
func (r Registry) List() []string {
	return slices.Clone(r.names)
}

func (r Registry) Len() int { return len(r.names) }

func (r Registry) MarshalJSON() ([]byte, error) {
	if r.names == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.names)
}

func (r *Registry) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	*r = NewRegistry(names...)
	return nil
}

// MonthRecord holds the inputs for one calendar month. Expenses is keyed by
// registered category; OneTime holds expenses that belong to this month only
// and are never pruned by the registry.
type MonthRecord struct {
	Income   Money            `json:"income"`
	Expenses map[string]Money `json:"expenses"`
	OneTime  map[string]Money `json:"one_time,omitempty"`
	Debt     Money            `json:"debt"`
}

// NewMonthRecord returns a record with every category set to zero.
func NewMonthRecord(categories []string) *MonthRecord {
	m := &MonthRecord{Expenses: make(map[string]Money, len(categories))}
	for _, c := range categories {
		m.Expenses[c] = Money{}
	}
	return m
}

// Expense returns the amount for a category, zero when absent.
func (m *MonthRecord) Expense(category string) Money {
	if m == nil {
		return Money{}
	}
	return m.Expenses[category]
}

func (m *MonthRecord) Clone() *MonthRecord {
	if m == nil {
		return nil
	}
	c := *m
	c.Expenses = maps.Clone(m.Expenses)
	if c.Expenses == nil {
		c.Expenses = map[string]Money{}
	}
	c.OneTime = maps.Clone(m.OneTime)
	return &c
}

// OneTimeNames returns the one-time expense names in sorted order.
func (m *MonthRecord) OneTimeNames() []string {
	if m == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(m.OneTime))
}

// Spending merges category and one-time amounts by name.
func (m *MonthRecord) Spending() map[string]Money {
	if m == nil {
		return nil
	}
	out := maps.Clone(m.Expenses)
	if out == nil {
		out = make(map[string]Money, len(m.OneTime))
	}
	for name, amt := range m.OneTime {
		out[name] = out[name].Add(amt)
	}
	return out
}

// Document is everything stored for one user: the category registry and the
// per-month records keyed by "YYYY-MM".
type Document struct {
	Version    int                     `json:"version"`
	Categories Registry                `json:"categories"`
	Months     map[string]*MonthRecord `json:"months"`
}

// NewDocument returns an empty document with the default categories.
func NewDocument() *Document {
	return &Document{
		Version:    DocumentVersion,
		Categories: NewRegistry(DefaultCategories...),
		Months:     map[string]*MonthRecord{},
	}
}

// Clone returns a deep copy; sessions edit clones so the stored document only
// changes on save.
func (d *Document) Clone() *Document {
	c := &Document{
		Version:    d.Version,
		Categories: NewRegistry(d.Categories.names...),
		Months:     make(map[string]*MonthRecord, len(d.Months)),
	}
	for k, m := range d.Months {
		c.Months[k] = m.Clone()
	}
	return c
}

// MonthKeys returns the stored month keys in ascending order.
func (d *Document) MonthKeys() []string {
	return slices.Sorted(maps.Keys(d.Months))
}

// Month returns the stored record without materializing it.
func (d *Document) Month(key string) (*MonthRecord, bool) {
	m, ok := d.Months[key]
	return m, ok
}

// View returns the record for key, creating it zero-filled when absent.
// Missing registry categories are added as zero and amounts for categories
// no longer in the registry are dropped, so the returned record has exactly
// the registry's keys.
func (d *Document) View(key string) (*MonthRecord, error) {
	if err := ValidateMonthKey(key); err != nil {
		return nil, err
	}
	if d.Months == nil {
		d.Months = map[string]*MonthRecord{}
	}
	m, ok := d.Months[key]
	if !ok || m == nil {
		m = NewMonthRecord(d.Categories.names)
		d.Months[key] = m
		return m, nil
	}
	if m.Expenses == nil {
		m.Expenses = map[string]Money{}
	}
	for _, c := range d.Categories.names {
		if _, ok := m.Expenses[c]; !ok {
			m.Expenses[c] = Money{}
		}
	}
	for c := range m.Expenses {
		if !d.Categories.Contains(c) {
			delete(m.Expenses, c)
		}
	}
	return m, nil
}

// AddCategory registers a category. Existing months pick it up on view.
func (d *Document) AddCategory(name string) error {
	return d.Categories.Add(name)
}

// RemoveCategory unregisters a category and, under CascadeDelete, removes its
// amounts from every month.
func (d *Document) RemoveCategory(name string, policy CascadePolicy) error {
	name = strings.TrimSpace(name)
	if err := d.Categories.Remove(name); err != nil {
		return err
	}
	if policy == CascadeDelete {
		for _, m := range d.Months {
			if m != nil {
				delete(m.Expenses, name)
			}
		}
	}
	return nil
}

// SetIncome replaces the month's income.
func (d *Document) SetIncome(key string, amount Money) error {
	m, err := d.viewForWrite(key, amount)
	if err != nil {
		return err
	}
	m.Income = amount
	return nil
}

// SetDebt replaces the month's outstanding debt.
func (d *Document) SetDebt(key string, amount Money) error {
	m, err := d.viewForWrite(key, amount)
	if err != nil {
		return err
	}
	m.Debt = amount
	return nil
}

// SetExpense replaces the amount of a registered category.
func (d *Document) SetExpense(key, category string, amount Money) error {
	if !d.Categories.Contains(category) {
		return ErrCategoryNotFound
	}
	m, err := d.viewForWrite(key, amount)
	if err != nil {
		return err
	}
	m.Expenses[category] = amount
	return nil
}

// QuickAdd adds amount to a registered category and returns the new total.
func (d *Document) QuickAdd(key, category string, amount Money) (Money, error) {
	category, err := NormalizeCategoryName(category)
	if err != nil {
		return Money{}, err
	}
	if !d.Categories.Contains(category) {
		return Money{}, ErrCategoryNotFound
	}
	m, err := d.viewForWrite(key, amount)
	if err != nil {
		return Money{}, err
	}
	total := m.Expenses[category].Add(amount)
	m.Expenses[category] = total
	return total, nil
}

// AddOneTimeExpense adds amount to a month-only expense and returns its new
// total. A name matching a registered category adds to that category
// instead, so the registry invariant holds for Expenses.
func (d *Document) AddOneTimeExpense(key, name string, amount Money) (Money, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Money{}, ErrEmptyExpenseName
	}
	if d.Categories.Contains(name) {
		return d.QuickAdd(key, name, amount)
	}
	m, err := d.viewForWrite(key, amount)
	if err != nil {
		return Money{}, err
	}
	if m.OneTime == nil {
		m.OneTime = map[string]Money{}
	}
	total := m.OneTime[name].Add(amount)
	m.OneTime[name] = total
	return total, nil
}

// RemoveOneTimeExpense deletes a month-only expense.
func (d *Document) RemoveOneTimeExpense(key, name string) error {
	m, err := d.View(key)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if _, ok := m.OneTime[name]; !ok {
		return ErrExpenseNotFound
	}
	delete(m.OneTime, name)
	if len(m.OneTime) == 0 {
		m.OneTime = nil
	}
	return nil
}

func (d *Document) viewForWrite(key string, amount Money) (*MonthRecord, error) {
	if amount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	return d.View(key)
}

// normalize fills nil maps and stamps the current version.
func (d *Document) normalize() {
	d.Version = DocumentVersion
	if d.Months == nil {
		d.Months = map[string]*MonthRecord{}
	}
	for k, m := range d.Months {
		if m == nil {
			delete(d.Months, k)
			continue
		}
		if m.Expenses == nil {
			m.Expenses = map[string]Money{}
		}
		m.trimExpenseKeys()
	}
}

// trimExpenseKeys moves amounts stored under padded names (older files kept
// category names as typed) onto the trimmed name the registry uses.
func (m *MonthRecord) trimExpenseKeys() {
	for k, v := range m.Expenses {
		name := strings.TrimSpace(k)
		if name == k || name == "" {
			continue
		}
		delete(m.Expenses, k)
		m.Expenses[name] = m.Expenses[name].Add(v)
	}
}
