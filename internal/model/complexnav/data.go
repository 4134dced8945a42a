package complexnav

import (
	"fmt"
	"slices"
	"time"
)

// Row counts per level
const (
	Level1Count = 13
	Level2Count = 11
	Level3Count = 10
	Level4Count = 10
)

var baseDate = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// Dataset holds every level without navigations
type Dataset struct {
	Level1 []Level1
	Level2 []Level2
	Level3 []Level3
	Level4 []Level4
}

// Generate builds the fixed complex navigation dataset. Level2 rows share
// their primary key with the Level1 row they belong to.
func Generate() *Dataset {
	d := &Dataset{}
	for i := 1; i <= Level1Count; i++ {
		l1 := Level1{ID: i, Name: fmt.Sprintf("L1 %02d", i), Date: baseDate.AddDate(0, 0, i)}
		if i%2 == 1 && i < Level1Count {
			l1.OneToOneOptionalSelfID = ptr(i + 1)
		}
		d.Level1 = append(d.Level1, l1)
	}
	for i := 1; i <= Level2Count; i++ {
		l2 := Level2{
			ID:                         i,
			Name:                       fmt.Sprintf("L2 %02d", i),
			Date:                       baseDate.AddDate(0, 1, i),
			Level1RequiredID:           i,
			OneToManyRequiredInverseID: i%3 + 1,
		}
		if i <= 9 {
			l2.Level1OptionalID = ptr(i)
		}
		if i <= 10 {
			l2.OneToManyOptionalInverseID = ptr((i-1)/2 + 1)
		}
		d.Level2 = append(d.Level2, l2)
	}
	for i := 1; i <= Level3Count; i++ {
		l3 := Level3{
			ID:                         i,
			Name:                       fmt.Sprintf("L3 %02d", i),
			Level2RequiredID:           i,
			OneToManyOptionalInverseID: ptr((i-1)/3 + 1),
		}
		if i <= 8 {
			l3.Level2OptionalID = ptr(i)
		}
		d.Level3 = append(d.Level3, l3)
	}
	for i := 1; i <= Level4Count; i++ {
		l4 := Level4{
			ID:               i,
			Name:             fmt.Sprintf("L4 %02d", i),
			Level3RequiredID: i,
		}
		if i <= 7 {
			l4.Level3OptionalID = ptr(i)
		}
		if i <= 8 {
			l4.OneToManyOptionalInverseID = ptr((i-1)/2 + 1)
		}
		d.Level4 = append(d.Level4, l4)
	}
	return d
}

// Expected returns a copy of d with every navigation populated
func (d *Dataset) Expected() *Dataset {
	e := &Dataset{
		Level1: slices.Clone(d.Level1),
		Level2: slices.Clone(d.Level2),
		Level3: slices.Clone(d.Level3),
		Level4: slices.Clone(d.Level4),
	}
	l1 := index(e.Level1, func(v Level1) int { return v.ID })
	l2 := index(e.Level2, func(v Level2) int { return v.ID })
	l3 := index(e.Level3, func(v Level3) int { return v.ID })

	// references first so collection copies carry them
	for i := range e.Level1 {
		v := &e.Level1[i]
		if v.OneToOneOptionalSelfID != nil {
			v.OneToOneOptionalSelf = l1[*v.OneToOneOptionalSelfID]
		}
	}
	for i := range e.Level2 {
		v := &e.Level2[i]
		v.OneToOneRequiredFKInverse = l1[v.Level1RequiredID]
		if v.Level1OptionalID != nil {
			v.OneToOneOptionalFKInverse = l1[*v.Level1OptionalID]
		}
	}
	for i := range e.Level3 {
		v := &e.Level3[i]
		v.OneToOneRequiredFKInverse = l2[v.Level2RequiredID]
		if v.Level2OptionalID != nil {
			v.OneToOneOptionalFKInverse = l2[*v.Level2OptionalID]
		}
	}
	for i := range e.Level4 {
		v := &e.Level4[i]
		v.OneToOneRequiredFKInverse = l3[v.Level3RequiredID]
		if v.Level3OptionalID != nil {
			v.OneToOneOptionalFKInverse = l3[*v.Level3OptionalID]
		}
	}

	// Level3 -> Level4
	for i := range e.Level4 {
		v := &e.Level4[i]
		if v.Level3OptionalID != nil {
			l3[*v.Level3OptionalID].OneToOneOptionalFK = v
		}
		if v.OneToManyOptionalInverseID != nil {
			p := l3[*v.OneToManyOptionalInverseID]
			p.OneToManyOptional = append(p.OneToManyOptional, *v)
		}
	}
	// Level2 -> Level3
	for i := range e.Level3 {
		v := &e.Level3[i]
		if v.Level2OptionalID != nil {
			l2[*v.Level2OptionalID].OneToOneOptionalFK = v
		}
		l2[v.Level2RequiredID].OneToOneRequiredFK = v
		if v.OneToManyOptionalInverseID != nil {
			p := l2[*v.OneToManyOptionalInverseID]
			p.OneToManyOptional = append(p.OneToManyOptional, *v)
		}
	}
	// Level1 -> Level2
	for i := range e.Level2 {
		v := &e.Level2[i]
		l1[v.ID].OneToOneRequiredPK = v
		l1[v.Level1RequiredID].OneToOneRequiredFK = v
		if v.Level1OptionalID != nil {
			l1[*v.Level1OptionalID].OneToOneOptionalFK = v
		}
		if v.OneToManyOptionalInverseID != nil {
			p := l1[*v.OneToManyOptionalInverseID]
			p.OneToManyOptional = append(p.OneToManyOptional, *v)
		}
		p := l1[v.OneToManyRequiredInverseID]
		p.OneToManyRequired = append(p.OneToManyRequired, *v)
	}
	return e
}

func index[T any](rows []T, key func(T) int) map[int]*T {
	out := make(map[int]*T, len(rows))
	for i := range rows {
		out[key(rows[i])] = &rows[i]
	}
	return out
}
