package mockapi

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed users.yaml
var defaultUsers []byte

const dobLayout = "2006-01-02"

// User is one citizen known to the mock.
type User struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	NHSNumber string `yaml:"nhs_number"`
	Postcode  string `yaml:"postcode"`
	DOB       string `yaml:"dob"`
	SMS       string `yaml:"sms"`
	Email     string `yaml:"email"`
	OptedOut  string `yaml:"opted_out"`

	born time.Time
}

type usersFile struct {
	Users []User `yaml:"users"`
}

// DefaultUsers returns the built-in fixture.
func DefaultUsers() ([]User, error) {
	return ParseUsers(defaultUsers)
}

// LoadUsers reads a fixture file with the same shape as the built-in one.
func LoadUsers(path string) ([]User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	return ParseUsers(data)
}

// ParseUsers decodes a YAML users fixture.
func ParseUsers(data []byte) ([]User, error) {
	var f usersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse users: %w", err)
	}
	if len(f.Users) == 0 {
		return nil, errors.New("users fixture is empty")
	}
	for i := range f.Users {
		u := &f.Users[i]
		if u.FirstName == "" || u.LastName == "" {
			return nil, fmt.Errorf("user %d: first_name and last_name are required", i)
		}
		born, err := time.Parse(dobLayout, u.DOB)
		if err != nil {
			return nil, fmt.Errorf("user %s %s: %w", u.FirstName, u.LastName, err)
		}
		u.born = born
	}
	return f.Users, nil
}

// matches applies the lookup rule: both names, plus NHS number or postcode.
func (u *User) matches(firstName, lastName, nhsNumber, postcode string) bool {
	if !strings.EqualFold(u.FirstName, firstName) || !strings.EqualFold(u.LastName, lastName) {
		return false
	}
	if nhsNumber != "" && u.NHSNumber == nhsNumber {
		return true
	}
	return postcode != "" && strings.EqualFold(u.Postcode, postcode)
}

// youngerThan reports whether the user has not reached age years at now.
func (u *User) youngerThan(age int, now time.Time) bool {
	return u.born.After(now.AddDate(-age, 0, 0))
}

func (u *User) is(firstName, lastName string) bool {
	return u.FirstName == firstName && u.LastName == lastName
}

func findUser(users []User, firstName, lastName, nhsNumber, postcode string) *User {
	for i := range users {
		if users[i].matches(firstName, lastName, nhsNumber, postcode) {
			u := users[i]
			return &u
		}
	}
	return nil
}
