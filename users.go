package unixfs

import (
	_ "embed"
	"strings"

	"github.com/gocarina/gocsv"
)

// usersSeedCSV holds the three hard-coded accounts: root/root, user1/123456,
// user2/123456.
//
//go:embed users_seed.csv
var usersSeedCSV string

// UserTable is a mapping uid -> account. It is pure in-memory state,
// re-seeded on every Format/Mount; there is no persistent user database.
type UserTable struct {
	byUID map[uint32]User
}

func newUserTable() *UserTable {
	t := &UserTable{byUID: make(map[uint32]User)}
	t.seed()
	return t
}

func (t *UserTable) seed() {
	t.byUID = make(map[uint32]User)

	reader := strings.NewReader(usersSeedCSV)
	gocsv.UnmarshalToCallback(reader, func(row User) error {
		t.byUID[row.UID] = row
		return nil
	})
}

// Authenticate performs a plain-text password compare, returning a Session
// on success.
func (t *UserTable) Authenticate(username, password string) (Session, bool) {
	for _, user := range t.byUID {
		if user.Username == username && user.Password == password {
			return Session{UID: user.UID, Username: user.Username, password: user.Password, IsRoot: user.IsRoot}, true
		}
	}
	return Session{}, false
}

// AddUser assigns the smallest unused non-negative uid to a new account.
func (t *UserTable) AddUser(username, password string, isRoot bool) User {
	uid := uint32(0)
	for {
		if _, taken := t.byUID[uid]; !taken {
			break
		}
		uid++
	}

	user := User{UID: uid, Username: username, Password: password, IsRoot: isRoot}
	t.byUID[uid] = user
	return user
}
