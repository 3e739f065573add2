package famgraph

import "fmt"

// PersonFields is the number of cells a data row must carry.
const PersonFields = 8

// Person is one individual in the family graph.
type Person struct {
	Generation   int    `json:"generation"`
	Name         string `json:"name"`
	Birthdate    string `json:"birthdate"`
	LastName     string `json:"last_name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Landline     string `json:"landline"`
	MobileNumber string `json:"mobile_number"`
	Email        string `json:"email"`
}

// NewPerson builds a Person from the cells of a data row. The cells must be
// name, birthdate, last name, address, city, landline, mobile number and email.
func NewPerson(cells []string, generation int) (Person, error) {
	if len(cells) != PersonFields {
		return Person{}, fmt.Errorf("expected exactly %d cells, got %d", PersonFields, len(cells))
	}
	return Person{
		Generation:   generation,
		Name:         cells[0],
		Birthdate:    cells[1],
		LastName:     cells[2],
		Address:      cells[3],
		City:         cells[4],
		Landline:     cells[5],
		MobileNumber: cells[6],
		Email:        cells[7],
	}, nil
}

// RootAncestor builds one of the two configured people at the top of the graph.
func RootAncestor(name, life, lastName string) Person {
	return Person{
		Generation: -1,
		Name:       name,
		Birthdate:  life,
		LastName:   lastName,
	}
}

// Relationship tags an edge of the family graph.
type Relationship int

const (
	Child Relationship = iota
	Relative
	Married
	Divorced
	Dating
	ChildFromPartner
	NotFound
)

var relationshipNames = [...]string{
	Child:            "child",
	Relative:         "relative",
	Married:          "married",
	Divorced:         "divorced",
	Dating:           "dating",
	ChildFromPartner: "child_from_partner",
	NotFound:         "not_found",
}

// Relationships lists every tag in declaration order.
func Relationships() []Relationship {
	return []Relationship{Child, Relative, Married, Divorced, Dating, ChildFromPartner, NotFound}
}

func (r Relationship) String() string {
	if r < 0 || int(r) >= len(relationshipNames) {
		return relationshipNames[NotFound]
	}
	return relationshipNames[r]
}

// IsDescent reports whether the edge points from a parent to a descendant.
func (r Relationship) IsDescent() bool {
	return r == Child || r == ChildFromPartner
}

// ParseRelationship is the inverse of Relationship.String.
func ParseRelationship(s string) (Relationship, error) {
	for i, name := range relationshipNames {
		if name == s {
			return Relationship(i), nil
		}
	}
	return NotFound, fmt.Errorf("unknown relationship %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Relationship) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Relationship) UnmarshalText(text []byte) error {
	rel, err := ParseRelationship(string(text))
	if err != nil {
		return err
	}
	*r = rel
	return nil
}
