package owned

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// orderNamespace derives stable order ids from person and ordinal
var orderNamespace = uuid.MustParse("0d8e5a53-8e2f-4bd9-9a3c-6b1f3f5d2a11")

// Earth is the planet every seeded country points at
const Earth = 1

func ptr[T any](v T) *T { return &v }

func address(line string, zip int, country string) Address {
	return Address{AddressLine: line, ZipCode: ptr(zip), Country: Country{Name: country, PlanetID: Earth}}
}

// OrderID returns the id of the n-th order of person
func OrderID(person, n int) uuid.UUID {
	return uuid.NewSHA1(orderNamespace, []byte(fmt.Sprintf("owned-order-%d-%d", person, n)))
}

type Dataset struct {
	People   []OwnedPerson
	Branches []Branch
	LeafAs   []LeafA
	LeafBs   []LeafB
	Orders   []OwnedOrder
}

func Generate() *Dataset {
	d := &Dataset{
		People: []OwnedPerson{{
			ID: 1, Name: "Mona Cy", Discriminator: PersonKind,
			PersonAddress: address("804 S. Lakeshore Road", 38654, "USA"),
		}},
		Branches: []Branch{{
			OwnedPerson: OwnedPerson{
				ID: 2, Name: "Antigonus Mitul", Discriminator: BranchKind,
				PersonAddress: address("7 Church Dr.", 19380, "USA"),
			},
			BranchAddress: address("560 Gullsland Dr.", 42612, "Canada"),
		}},
		LeafAs: []LeafA{{
			Branch: Branch{
				OwnedPerson: OwnedPerson{
					ID: 3, Name: "Monty Elias", Discriminator: LeafAKind,
					PersonAddress: address("72 Hickory Rd.", 7728, "USA"),
				},
				BranchAddress: address("12 Shore Lane", 10114, "Canada"),
			},
			LeafAAddress: address("39 Calle Jardin", 53100, "Mexico"),
		}},
		LeafBs: []LeafB{{
			OwnedPerson: OwnedPerson{
				ID: 4, Name: "Andrew Kaddik", Discriminator: LeafBKind,
				PersonAddress: address("79 Main St.", 29293, "USA"),
			},
			LeafBAddress: address("Avenida Balboa 4", 7050, "Panama"),
		}},
	}

	perPerson := []int{2, 2, 1, 2}
	base := time.Date(2018, time.July, 11, 10, 1, 41, 0, time.UTC)
	for i, n := range perPerson {
		person := i + 1
		for j := 1; j <= n; j++ {
			d.Orders = append(d.Orders, OwnedOrder{
				ID:        OrderID(person, j),
				ClientID:  person,
				OrderDate: base.AddDate(0, 0, person*10+j),
			})
		}
	}
	return d
}

// Expected holds each hierarchy type's view of the people with orders
// wired
type Expected struct {
	People   []OwnedPerson
	Branches []Branch
	LeafAs   []LeafA
	LeafBs   []LeafB
	Orders   []OwnedOrder
}

func (d *Dataset) Expected() *Expected {
	orders := func(id int) []OwnedOrder {
		var out []OwnedOrder
		for _, o := range d.Orders {
			if o.ClientID == id {
				out = append(out, o)
			}
		}
		return out
	}

	e := &Expected{Orders: slices.Clone(d.Orders)}
	for _, l := range d.LeafAs {
		l.Orders = orders(l.ID)
		e.LeafAs = append(e.LeafAs, l)
	}
	for _, l := range d.LeafBs {
		l.Orders = orders(l.ID)
		e.LeafBs = append(e.LeafBs, l)
	}
	for _, b := range d.Branches {
		b.Orders = orders(b.ID)
		e.Branches = append(e.Branches, b)
	}
	for _, l := range e.LeafAs {
		e.Branches = append(e.Branches, l.Branch)
	}
	for _, p := range d.People {
		p.Orders = orders(p.ID)
		e.People = append(e.People, p)
	}
	for _, b := range e.Branches {
		e.People = append(e.People, b.OwnedPerson)
	}
	for _, l := range e.LeafBs {
		e.People = append(e.People, l.OwnedPerson)
	}
	return e
}
