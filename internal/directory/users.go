// Package directory keeps the in-memory user directory behind the
// registration endpoints.
package directory

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUsernameRequired = errors.New("directory: username is required")
	ErrUsernameTaken    = errors.New("directory: username already exists")
)

// User is a registered identity.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"-"`
}

type Users struct {
	mu     sync.RWMutex
	byID   map[string]User
	order  []string
	now    func() time.Time
	nextID func() string
}

func NewUsers() *Users {
	return &Users{
		byID:   make(map[string]User),
		now:    time.Now,
		nextID: uuid.NewString,
	}
}

// Register adds a user. Names are unique and compared exactly after
// trimming surrounding whitespace.
func (u *Users) Register(username string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, ErrUsernameRequired
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	for _, id := range u.order {
		if u.byID[id].Username == username {
			return User{}, ErrUsernameTaken
		}
	}
	user := User{ID: u.nextID(), Username: username, CreatedAt: u.now()}
	u.byID[user.ID] = user
	u.order = append(u.order, user.ID)
	return user, nil
}

func (u *Users) Get(id string) (User, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.byID[id]
	return user, ok
}

// List returns users in registration order.
func (u *Users) List() []User {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]User, 0, len(u.order))
	for _, id := range u.order {
		out = append(out, u.byID[id])
	}
	return out
}
