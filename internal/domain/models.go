package domain

import "time"

const DateLayout = "2006-01-02"

const (
	RoleManager  = "manager"
	RoleCustomer = "customer"
)

type Manager struct {
	Name string `db:"name"`
	// PIN holds a bcrypt hash, or the plain 4-digit pin for rows written by
	// older tooling.
	PIN string `db:"pin"`
}

type Customer struct {
	Name string `db:"name"`
}

type Product struct {
	Name      string `db:"name"`
	Price     int64  `db:"price"`
	Unit      string `db:"unit"`
	Stock     int    `db:"stock"`
	SoldToday int    `db:"sold_today"`
}

type ProductInput struct {
	Name  string
	Price string
	Unit  string
	Stock string
}

// ProductUpdate carries raw user input; blank fields keep the current value.
type ProductUpdate struct {
	Price string
	Unit  string
	Stock string
}

type Sale struct {
	Date   time.Time `db:"sale_date"`
	Amount int64     `db:"amount"`
}

type ManagerPurchase struct {
	ManagerName string `db:"manager_name"`
	Date        string `db:"purchase_date"`
	Product     string `db:"product"`
	Quantity    int    `db:"quantity"`
	TotalCost   int64  `db:"total_cost"`
}

type Actor struct {
	Name string
	Role string
}

type DailyTotal struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
}

type EarningsReport struct {
	Today   string       `json:"today"`
	Daily   []DailyTotal `json:"daily"`
	Weekly  int64        `json:"weekly"`
	Monthly int64        `json:"monthly"`
	Yearly  int64        `json:"yearly"`
	Balance int64        `json:"balance"`
}

type CheckoutLine struct {
	Product string `json:"product"`
	Qty     int    `json:"qty"`
	Price   int64  `json:"price"`
	Cost    int64  `json:"cost"`
}

type Receipt struct {
	Lines  []CheckoutLine `json:"lines"`
	Total  int64          `json:"total"`
	Paid   int64          `json:"paid"`
	Change int64          `json:"change"`
	Date   string         `json:"date"`
}

// CalendarDate drops the clock and zone of t, keeping its wall-clock date as
// a UTC midnight so it compares cleanly with parsed sale dates.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
