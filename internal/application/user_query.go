package application

import (
	"strconv"

	"github.com/oksasatya/go-user-directory/internal/domain/entity"
)

// Recognized filter keys. Anything else in a request is ignored.
const (
	FilterAge     = "age"
	FilterCompany = "company"
)

// Criteria is the parsed form of a filter map. Nil fields are inactive.
type Criteria struct {
	Age     *int
	Company *string
}

// Empty reports whether no predicate is active.
func (c Criteria) Empty() bool {
	return c.Age == nil && c.Company == nil
}

// Matches reports whether u satisfies every active predicate.
func (c Criteria) Matches(u entity.User) bool {
	if c.Age != nil && u.Age != *c.Age {
		return false
	}
	if c.Company != nil && u.Company != *c.Company {
		return false
	}
	return true
}

// ParseCriteria validates the recognized keys of filters.
// A malformed age is rejected rather than skipped.
func ParseCriteria(filters map[string]string) (Criteria, error) {
	var c Criteria
	if raw, ok := filters[FilterAge]; ok {
		age, err := strconv.Atoi(raw)
		if err != nil {
			return Criteria{}, &ValidationError{Field: FilterAge, Value: raw, Reason: "must be an integer"}
		}
		if age < 0 {
			return Criteria{}, &ValidationError{Field: FilterAge, Value: raw, Reason: "must not be negative"}
		}
		c.Age = &age
	}
	if company, ok := filters[FilterCompany]; ok {
		c.Company = &company
	}
	return c, nil
}

// FilterUsers returns the records of all matching every recognized filter,
// in their original order. With no recognized filters all is returned as is.
func FilterUsers(all []entity.User, filters map[string]string) ([]entity.User, error) {
	c, err := ParseCriteria(filters)
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return all, nil
	}
	out := make([]entity.User, 0)
	for _, u := range all {
		if c.Matches(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

// FindUserByID returns the first record whose ID equals id.
func FindUserByID(all []entity.User, id string) (entity.User, error) {
	for _, u := range all {
		if u.ID == id {
			return u, nil
		}
	}
	return entity.User{}, &NotFoundError{ID: id}
}
