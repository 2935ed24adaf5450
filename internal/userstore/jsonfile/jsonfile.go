// Package jsonfile implements the credential store over an in-memory
// record table synchronized to a single JSON snapshot file. The snapshot
// is read wholesale on startup and rewritten wholesale on Save/Close;
// there is no incremental persistence, so mutations between saves are
// lost on a crash.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/sessiond/internal/user"
	"github.com/patric-chuzhbe/sessiond/internal/userstore"
)

// JSONFile is the snapshot-file backed credential store.
type JSONFile struct {
	fileName   string
	bcryptCost int

	// mu serializes mutations (insert/remove) and snapshot save/load
	// against each other; lookups take the read side only.
	mu    sync.RWMutex
	users []user.User
}

// Option customizes a JSONFile.
type Option func(*JSONFile)

// WithBCryptCost overrides the password hashing cost factor. The default
// is bcrypt.DefaultCost; tests lower it to keep hashing fast.
func WithBCryptCost(cost int) Option {
	return func(db *JSONFile) {
		db.bcryptCost = cost
	}
}

// New creates the store and loads the snapshot file, creating an empty
// snapshot first when the file does not exist yet.
func New(fileName string, optionsProto ...Option) (*JSONFile, error) {
	db := NewInMemory(optionsProto...)
	db.fileName = fileName

	err := parseJSONFile(db.fileName, &db.users)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		err := initDBFile(fileName)
		if err != nil {
			return nil, err
		}
		err = parseJSONFile(db.fileName, &db.users)
		if err != nil {
			return nil, err
		}
	}

	return db, nil
}

// NewInMemory creates the store without a backing file. Save and Load
// become no-ops; the memorystore package wraps this for the file-less
// configuration.
func NewInMemory(optionsProto ...Option) *JSONFile {
	db := &JSONFile{
		bcryptCost: bcrypt.DefaultCost,
		users:      []user.User{},
	}
	for _, protoOption := range optionsProto {
		protoOption(db)
	}

	return db
}

// Insert adds a new record for the credential after checking that no
// record with the same email exists. The uniqueness check, the password
// hashing and the append run as one exclusive step so two concurrent
// inserts of the same email cannot both pass the check.
func (db *JSONFile) Insert(ctx context.Context, credential userstore.Credential) (*user.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if found := db.findByEmail(credential.Email); found != nil {
		return nil, userstore.ErrAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(credential.Password), db.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("in internal/userstore/jsonfile/jsonfile.go/Insert(): error while `bcrypt.GenerateFromPassword()` calling: %w", err)
	}

	record := user.User{
		ID:           uuid.New().String(),
		Name:         credential.Name,
		Email:        credential.Email,
		PasswordHash: string(hashed),
	}
	db.users = append(db.users, record)

	return &record, nil
}

// Verify looks the credential's email up and compares the supplied
// password against the stored hash. The bcrypt comparison runs outside
// the lock so concurrent lookups are not serialized behind it.
func (db *JSONFile) Verify(ctx context.Context, credential userstore.Credential) (*user.User, error) {
	db.mu.RLock()
	found := db.findByEmail(credential.Email)
	if found == nil {
		db.mu.RUnlock()
		return nil, userstore.ErrNotFound
	}
	record := *found
	db.mu.RUnlock()

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(credential.Password)); err != nil {
		return nil, userstore.ErrInvalidCredentials
	}

	return &record, nil
}

// Find returns the record addressed by the selector, checking ID, then
// name, then email.
func (db *JSONFile) Find(ctx context.Context, selector userstore.Selector) (*user.User, error) {
	predicate, err := selectorPredicate(selector)
	if err != nil {
		return nil, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	found, ok := funk.Find(db.users, predicate).(user.User)
	if !ok {
		return nil, userstore.ErrNotFound
	}

	return &found, nil
}

// Remove excises the record addressed by the selector using the same
// ID/name/email precedence as Find.
func (db *JSONFile) Remove(ctx context.Context, selector userstore.Selector) error {
	predicate, err := selectorPredicate(selector)
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.users {
		if predicate(db.users[i]) {
			db.users = append(db.users[:i], db.users[i+1:]...)
			return nil
		}
	}

	return userstore.ErrNotFound
}

// Load replaces the in-memory table with the snapshot file contents.
func (db *JSONFile) Load(ctx context.Context) error {
	if db.fileName == "" {
		return nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	users := []user.User{}
	if err := parseJSONFile(db.fileName, &users); err != nil {
		return err
	}
	db.users = users

	return nil
}

// Save serializes the whole in-memory table and overwrites the snapshot
// file.
func (db *JSONFile) Save(ctx context.Context) error {
	if db.fileName == "" {
		return nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	return writeToJSONFile(db.fileName, db.users)
}

// Ping reports storage health. The file store is always healthy once
// constructed.
func (db *JSONFile) Ping(ctx context.Context) error {
	return nil
}

// Close persists the snapshot.
func (db *JSONFile) Close() error {
	return db.Save(context.Background())
}

// findByEmail must be called with mu held.
func (db *JSONFile) findByEmail(email string) *user.User {
	for i := range db.users {
		if db.users[i].Email == email {
			return &db.users[i]
		}
	}

	return nil
}

func selectorPredicate(selector userstore.Selector) (func(user.User) bool, error) {
	switch {
	case selector.ID != "":
		return func(u user.User) bool { return u.ID == selector.ID }, nil
	case selector.Name != "":
		return func(u user.User) bool { return u.Name == selector.Name }, nil
	case selector.Email != "":
		return func(u user.User) bool { return u.Email == selector.Email }, nil
	}

	return nil, userstore.ErrInvalidSelector
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `[]`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, users []user.User) error {
	jsonData, err := json.MarshalIndent(users, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func parseJSONFile(fileName string, users *[]user.User) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	err = decoder.Decode(users)
	if err != nil {
		return err
	}

	return nil
}

var _ userstore.Store = (*JSONFile)(nil)
