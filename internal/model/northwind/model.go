// Package northwind holds the customer/order model the query scenarios run
// against and a deterministic generator for its reference dataset.
package northwind

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID           string `gorm:"primaryKey;size:5"`
	CompanyName  string `gorm:"not null"`
	ContactName  *string
	ContactTitle *string
	Address      *string
	City         *string `gorm:"size:15;index"`
	Region       *string `gorm:"size:15"`
	PostalCode   *string `gorm:"size:10"`
	Country      *string `gorm:"size:15"`
	Phone        *string
	Fax          *string

	Orders []Order
}

type Employee struct {
	ID        int    `gorm:"primaryKey;autoIncrement:false"`
	LastName  string `gorm:"size:20;not null"`
	FirstName string `gorm:"size:10;not null"`
	Title     *string
	HireDate  *time.Time
	City      *string
	Country   *string
	ReportsTo *int

	Manager *Employee `gorm:"foreignKey:ReportsTo"`
}

type Product struct {
	ID              int    `gorm:"primaryKey;autoIncrement:false"`
	ProductName     string `gorm:"not null"`
	SupplierID      *int
	CategoryID      *int
	QuantityPerUnit *string
	UnitPrice       decimal.Decimal `gorm:"type:decimal(10,2)"`
	UnitsInStock    int16
	UnitsOnOrder    int16
	ReorderLevel    int16
	Discontinued    bool

	OrderDetails []OrderDetail
}

type Order struct {
	ID             int     `gorm:"primaryKey;autoIncrement:false"`
	CustomerID     *string `gorm:"size:5;index"`
	EmployeeID     *int
	OrderDate      *time.Time
	RequiredDate   *time.Time
	ShippedDate    *time.Time
	ShipVia        *int
	Freight        decimal.Decimal `gorm:"type:decimal(10,2)"`
	ShipName       *string
	ShipCity       *string
	ShipRegion     *string
	ShipPostalCode *string
	ShipCountry    *string

	Customer     *Customer
	Employee     *Employee
	OrderDetails []OrderDetail
}

type OrderDetail struct {
	OrderID   int             `gorm:"primaryKey;autoIncrement:false"`
	ProductID int             `gorm:"primaryKey;autoIncrement:false"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2)"`
	Quantity  int16
	Discount  float32

	Order   *Order
	Product *Product
}

// Models lists the entity types in migration order
func Models() []any {
	return []any{&Customer{}, &Employee{}, &Product{}, &Order{}, &OrderDetail{}}
}
