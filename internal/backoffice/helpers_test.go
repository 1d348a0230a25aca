package backoffice

import (
	"strconv"

	"pazaauto.id/internal/auth"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func accountFor(username string, employeeID int64) auth.Account {
	id := employeeID
	return auth.Account{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: testHash,
		Active:       true,
		Roles:        []string{"user"},
		EmployeeID:   &id,
	}
}
