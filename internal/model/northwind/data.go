package northwind

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
)

// Dataset sizes. Every customer except those in IdleCustomers places at
// least one order.
const (
	CustomerCount = 91
	EmployeeCount = 9
	ProductCount  = 77
	OrderCount    = 830
	FirstOrderID  = 10248
)

// IdleCustomers never place an order
var IdleCustomers = []string{"FISSA", "PARIS"}

var customerIDs = [CustomerCount]string{
	"ALFKI", "ANATR", "ANTON", "AROUT", "BERGS", "BLAUS", "BLONP", "BOLID", "BONAP", "BOTTM",
	"BSBEV", "CACTU", "CENTC", "CHOPS", "COMMI", "CONSH", "DRACD", "DUMON", "EASTC", "ERNSH",
	"FAMIA", "FISSA", "FOLIG", "FOLKO", "FRANK", "FRANR", "FRANS", "FURIB", "GALED", "GODOS",
	"GOURL", "GREAL", "GROSR", "HANAR", "HILAA", "HUNGC", "HUNGO", "ISLAT", "KOENE", "LACOR",
	"LAMAI", "LAUGB", "LAZYK", "LEHMS", "LETSS", "LILAS", "LINOD", "LONEP", "MAGAA", "MAISD",
	"MEREP", "MORGK", "NORTS", "OCEAN", "OLDWO", "OTTIK", "PARIS", "PERIC", "PICCO", "PRINI",
	"QUEDE", "QUEEN", "QUICK", "RANCH", "RATTC", "REGGC", "RICAR", "RICSU", "ROMEY", "SANTG",
	"SAVEA", "SEVES", "SIMOB", "SPECD", "SPLIR", "SUPRD", "THEBI", "THECR", "TOMSP", "TORTU",
	"TRADH", "TRAIH", "VAFFE", "VICTE", "VINET", "WANDK", "WARTH", "WELLI", "WHITC", "WILMK",
	"WOLZA",
}

type place struct {
	country string
	regions []string
	cities  []string
}

var places = []place{
	{country: "Argentina", cities: []string{"Buenos Aires"}},
	{country: "Austria", cities: []string{"Graz", "Salzburg"}},
	{country: "Belgium", cities: []string{"Bruxelles", "Charleroi"}},
	{country: "Brazil", regions: []string{"SP", "RJ"}, cities: []string{"Sao Paulo", "Rio de Janeiro", "Campinas", "Resende"}},
	{country: "Canada", regions: []string{"BC", "Quebec"}, cities: []string{"Montreal", "Tsawassen", "Vancouver"}},
	{country: "Denmark", cities: []string{"Kobenhavn", "Arhus"}},
	{country: "Finland", cities: []string{"Helsinki", "Oulu"}},
	{country: "France", cities: []string{"Paris", "Lyon", "Nantes", "Marseille", "Lille", "Reims", "Strasbourg", "Toulouse", "Versailles"}},
	{country: "Germany", cities: []string{"Berlin", "Aachen", "Brandenburg", "Cunewalde", "Frankfurt a.M.", "Koln", "Leipzig", "Mannheim", "Munchen", "Munster", "Stuttgart"}},
	{country: "Ireland", regions: []string{"Co. Cork"}, cities: []string{"Cork"}},
	{country: "Italy", cities: []string{"Bergamo", "Reggio Emilia", "Torino"}},
	{country: "Mexico", cities: []string{"Mexico D.F."}},
	{country: "Norway", cities: []string{"Stavern"}},
	{country: "Poland", cities: []string{"Warszawa"}},
	{country: "Portugal", cities: []string{"Lisboa"}},
	{country: "Spain", cities: []string{"Madrid", "Barcelona", "Sevilla"}},
	{country: "Sweden", cities: []string{"Lulea", "Brakke"}},
	{country: "Switzerland", cities: []string{"Bern", "Geneve"}},
	{country: "UK", cities: []string{"London", "Cowes"}},
	{country: "USA", regions: []string{"WA", "OR", "ID", "AK", "NM", "WY", "MT", "CA"}, cities: []string{"Seattle", "Portland", "Boise", "Anchorage", "Albuquerque", "Lander", "Butte", "San Francisco", "Kirkland", "Walla Walla", "Elgin", "Eugene"}},
	{country: "Venezuela", regions: []string{"Lara", "Nueva Esparta", "Tachira"}, cities: []string{"Barquisimeto", "Caracas", "I. de Margarita", "San Cristobal"}},
}

var discounts = []float32{0, 0.05, 0.1, 0.15, 0.2, 0.25}

// firstOrderDate and lastOrderDate bound the generated order dates
var (
	firstOrderDate = time.Date(1996, time.July, 4, 0, 0, 0, 0, time.UTC)
	lastOrderDate  = time.Date(1998, time.May, 6, 0, 0, 0, 0, time.UTC)
)

// unshipped is the number of trailing orders without a ship date
const unshipped = 21

// Dataset is one generated copy of the northwind data. Navigations are not
// populated; Expected returns the wired reference copy.
type Dataset struct {
	Customers    []Customer
	Employees    []Employee
	Products     []Product
	Orders       []Order
	OrderDetails []OrderDetail
}

// Generate builds the dataset for seed. Equal seeds give equal datasets.
func Generate(seed uint64) *Dataset {
	f := gofakeit.New(seed)
	r := rand.New(rand.NewPCG(seed, seed^0x6e6f72746877696e))

	d := &Dataset{}
	d.Customers = generateCustomers(f)
	d.Employees = employees()
	d.Products = generateProducts(f)
	d.Orders = generateOrders(f, r, d.Customers)
	d.OrderDetails = generateOrderDetails(r, d.Orders, d.Products)
	return d
}

func ptr[T any](v T) *T { return &v }

func generateCustomers(f *gofakeit.Faker) []Customer {
	out := make([]Customer, 0, CustomerCount)
	for _, id := range customerIDs {
		p := places[f.IntRange(0, len(places)-1)]
		c := Customer{
			ID:           id,
			CompanyName:  f.Company(),
			ContactName:  ptr(f.FirstName() + " " + f.LastName()),
			ContactTitle: ptr(f.JobTitle()),
			Address:      ptr(f.Street()),
			City:         ptr(p.cities[f.IntRange(0, len(p.cities)-1)]),
			Country:      ptr(p.country),
			Phone:        ptr(f.Phone()),
		}
		if len(p.regions) > 0 {
			c.Region = ptr(p.regions[f.IntRange(0, len(p.regions)-1)])
		}
		if p.country != "Ireland" {
			c.PostalCode = ptr(f.Zip())
		}
		if f.Bool() {
			c.Fax = ptr(f.Phone())
		}
		out = append(out, c)
	}
	return out
}

func employees() []Employee {
	hired := func(y int, m time.Month, d int) *time.Time {
		return ptr(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	}
	seattle, london, tacoma, kirkland, redmond := ptr("Seattle"), ptr("London"), ptr("Tacoma"), ptr("Kirkland"), ptr("Redmond")
	usa, uk := ptr("USA"), ptr("UK")
	rep, sales, inside := ptr("Sales Representative"), ptr("Sales Manager"), ptr("Inside Sales Coordinator")
	return []Employee{
		{ID: 1, LastName: "Davolio", FirstName: "Nancy", Title: rep, HireDate: hired(1992, 5, 1), City: seattle, Country: usa, ReportsTo: ptr(2)},
		{ID: 2, LastName: "Fuller", FirstName: "Andrew", Title: ptr("Vice President, Sales"), HireDate: hired(1992, 8, 14), City: tacoma, Country: usa},
		{ID: 3, LastName: "Leverling", FirstName: "Janet", Title: rep, HireDate: hired(1992, 4, 1), City: kirkland, Country: usa, ReportsTo: ptr(2)},
		{ID: 4, LastName: "Peacock", FirstName: "Margaret", Title: rep, HireDate: hired(1993, 5, 3), City: redmond, Country: usa, ReportsTo: ptr(2)},
		{ID: 5, LastName: "Buchanan", FirstName: "Steven", Title: sales, HireDate: hired(1993, 10, 17), City: london, Country: uk, ReportsTo: ptr(2)},
		{ID: 6, LastName: "Suyama", FirstName: "Michael", Title: rep, HireDate: hired(1993, 10, 17), City: london, Country: uk, ReportsTo: ptr(5)},
		{ID: 7, LastName: "King", FirstName: "Robert", Title: rep, HireDate: hired(1994, 1, 2), City: london, Country: uk, ReportsTo: ptr(5)},
		{ID: 8, LastName: "Callahan", FirstName: "Laura", Title: inside, HireDate: hired(1994, 3, 5), City: seattle, Country: usa, ReportsTo: ptr(2)},
		{ID: 9, LastName: "Dodsworth", FirstName: "Anne", Title: rep, HireDate: hired(1994, 11, 15), City: london, Country: uk, ReportsTo: ptr(5)},
	}
}

func generateProducts(f *gofakeit.Faker) []Product {
	out := make([]Product, 0, ProductCount)
	seen := make(map[string]bool, ProductCount)
	levels := []int16{0, 5, 10, 15, 20, 25, 30}
	for id := 1; id <= ProductCount; id++ {
		name := f.ProductName()
		if seen[name] {
			name = fmt.Sprintf("%s %d", name, id)
		}
		seen[name] = true

		p := Product{
			ID:              id,
			ProductName:     name,
			SupplierID:      ptr(f.IntRange(1, 29)),
			CategoryID:      ptr(f.IntRange(1, 8)),
			QuantityPerUnit: ptr(fmt.Sprintf("%d units", f.IntRange(1, 48))),
			UnitPrice:       decimal.NewFromFloat(f.Price(2.5, 263.5)).Round(2),
			UnitsInStock:    int16(f.IntRange(0, 125)),
			ReorderLevel:    levels[f.IntRange(0, len(levels)-1)],
			Discontinued:    id%9 == 0,
		}
		if f.IntRange(0, 3) == 0 {
			p.UnitsOnOrder = int16(10 * f.IntRange(1, 10))
		}
		out = append(out, p)
	}
	return out
}

func generateOrders(f *gofakeit.Faker, r *rand.Rand, customers []Customer) []Order {
	active := make([]*Customer, 0, len(customers))
	for i := range customers {
		if !slices.Contains(IdleCustomers, customers[i].ID) {
			active = append(active, &customers[i])
		}
	}
	// the first len(active) orders visit every active customer once
	first := r.Perm(len(active))
	span := int(lastOrderDate.Sub(firstOrderDate).Hours() / 24)

	out := make([]Order, 0, OrderCount)
	for i := 0; i < OrderCount; i++ {
		var c *Customer
		if i < len(first) {
			c = active[first[i]]
		} else {
			c = active[r.IntN(len(active))]
		}
		ordered := firstOrderDate.AddDate(0, 0, i*span/(OrderCount-1))
		o := Order{
			ID:           FirstOrderID + i,
			CustomerID:   ptr(c.ID),
			EmployeeID:   ptr(1 + r.IntN(EmployeeCount)),
			OrderDate:    ptr(ordered),
			RequiredDate: ptr(ordered.AddDate(0, 0, 14*(1+r.IntN(3)))),
			ShipVia:      ptr(1 + r.IntN(3)),
			Freight:      decimal.NewFromFloat(f.Price(0.02, 1007.64)).Round(2),
			ShipName:     ptr(c.CompanyName),
			ShipCity:     c.City,
			ShipRegion:   c.Region,
			ShipCountry:  c.Country,
		}
		if c.PostalCode != nil {
			o.ShipPostalCode = ptr(*c.PostalCode)
		}
		if i < OrderCount-unshipped {
			o.ShippedDate = ptr(ordered.AddDate(0, 0, 1+r.IntN(30)))
		}
		out = append(out, o)
	}
	return out
}

func generateOrderDetails(r *rand.Rand, orders []Order, products []Product) []OrderDetail {
	out := make([]OrderDetail, 0, len(orders)*5/2)
	for _, o := range orders {
		picked := r.Perm(len(products))[:1+r.IntN(4)]
		slices.Sort(picked)
		for _, idx := range picked {
			p := products[idx]
			out = append(out, OrderDetail{
				OrderID:   o.ID,
				ProductID: p.ID,
				UnitPrice: p.UnitPrice,
				Quantity:  int16(1 + r.IntN(120)),
				Discount:  discounts[r.IntN(len(discounts))],
			})
		}
	}
	return out
}

// Expected returns a copy of d with every navigation populated
func (d *Dataset) Expected() *Dataset {
	e := &Dataset{
		Customers:    slices.Clone(d.Customers),
		Employees:    slices.Clone(d.Employees),
		Products:     slices.Clone(d.Products),
		Orders:       slices.Clone(d.Orders),
		OrderDetails: slices.Clone(d.OrderDetails),
	}

	customers := make(map[string]*Customer, len(e.Customers))
	for i := range e.Customers {
		customers[e.Customers[i].ID] = &e.Customers[i]
	}
	employees := make(map[int]*Employee, len(e.Employees))
	for i := range e.Employees {
		employees[e.Employees[i].ID] = &e.Employees[i]
	}
	products := make(map[int]*Product, len(e.Products))
	for i := range e.Products {
		products[e.Products[i].ID] = &e.Products[i]
	}
	orders := make(map[int]*Order, len(e.Orders))
	for i := range e.Orders {
		orders[e.Orders[i].ID] = &e.Orders[i]
	}

	for i := range e.Employees {
		if m := e.Employees[i].ReportsTo; m != nil {
			e.Employees[i].Manager = employees[*m]
		}
	}
	for i := range e.Orders {
		o := &e.Orders[i]
		if o.CustomerID != nil {
			o.Customer = customers[*o.CustomerID]
		}
		if o.EmployeeID != nil {
			o.Employee = employees[*o.EmployeeID]
		}
	}
	for i := range e.OrderDetails {
		od := &e.OrderDetails[i]
		od.Order = orders[od.OrderID]
		od.Product = products[od.ProductID]
	}
	for _, od := range e.OrderDetails {
		od.Order.OrderDetails = append(od.Order.OrderDetails, od)
		od.Product.OrderDetails = append(od.Product.OrderDetails, od)
	}
	for _, o := range e.Orders {
		if o.Customer != nil {
			o.Customer.Orders = append(o.Customer.Orders, o)
		}
	}
	return e
}
