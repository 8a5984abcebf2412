// Package storage maps the app's records onto a namespaced kv.Store as JSON.
package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/julianstephens/brahmacharya/internal/constants"
	"github.com/julianstephens/brahmacharya/internal/errors"
	"github.com/julianstephens/brahmacharya/internal/kv"
	"github.com/julianstephens/brahmacharya/internal/logger"
	"github.com/julianstephens/brahmacharya/internal/models"
)

// Storage operation names carried by StorageIOError
const (
	OpGet    = "get"
	OpSet    = "set"
	OpDelete = "delete"
	OpDecode = "decode"
	OpEncode = "encode"
)

type Storage struct {
	kv        kv.Store
	namespace string
}

var _ Provider = (*Storage)(nil)

// New wraps store, prefixing every key with namespace (the default
// namespace when empty).
func New(store kv.Store, namespace string) *Storage {
	if namespace == "" {
		namespace = constants.DefaultNamespace
	}
	return &Storage{kv: store, namespace: namespace}
}

func (s *Storage) Namespace() string {
	return s.namespace
}

// Key returns the namespaced key for a record name
func (s *Storage) Key(name string) string {
	return s.namespace + constants.KeySeparator + name
}

// Keys lists the namespaced key of every record
func (s *Storage) Keys() []string {
	return []string{
		s.Key(constants.KeyStreakData),
		s.Key(constants.KeyMoodLogs),
		s.Key(constants.KeyPracticeLogs),
		s.Key(constants.KeyOnboardingComplete),
	}
}

// Raw returns the stored string for a record name, for export and doctor
func (s *Storage) Raw(ctx context.Context, name string) (string, bool, error) {
	key := s.Key(name)
	value, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return "", false, s.fail(OpGet, key, err)
	}
	return value, ok, nil
}

func (s *Storage) Streak(ctx context.Context) (models.StreakData, bool, error) {
	var data models.StreakData
	found, err := s.getJSON(ctx, constants.KeyStreakData, &data)
	if err != nil {
		return models.StreakData{}, false, err
	}
	return data, found, nil
}

func (s *Storage) SaveStreak(ctx context.Context, data models.StreakData) error {
	return s.setJSON(ctx, constants.KeyStreakData, data)
}

func (s *Storage) MoodLogs(ctx context.Context) ([]models.MoodLog, error) {
	var logs []models.MoodLog
	if _, err := s.getJSON(ctx, constants.KeyMoodLogs, &logs); err != nil {
		return []models.MoodLog{}, err
	}
	if logs == nil {
		logs = []models.MoodLog{}
	}
	return logs, nil
}

func (s *Storage) SaveMoodLogs(ctx context.Context, logs []models.MoodLog) error {
	if logs == nil {
		logs = []models.MoodLog{}
	}
	return s.setJSON(ctx, constants.KeyMoodLogs, logs)
}

// UpdateMoodLogs replaces the stored list with fn's result. Backends that
// implement kv.Updater apply it atomically across processes.
func (s *Storage) UpdateMoodLogs(ctx context.Context, fn func([]models.MoodLog) []models.MoodLog) error {
	return updateList(ctx, s, constants.KeyMoodLogs, fn)
}

func (s *Storage) PracticeLogs(ctx context.Context) ([]models.PracticeLog, error) {
	var logs []models.PracticeLog
	if _, err := s.getJSON(ctx, constants.KeyPracticeLogs, &logs); err != nil {
		return []models.PracticeLog{}, err
	}
	if logs == nil {
		logs = []models.PracticeLog{}
	}
	return logs, nil
}

func (s *Storage) SavePracticeLogs(ctx context.Context, logs []models.PracticeLog) error {
	if logs == nil {
		logs = []models.PracticeLog{}
	}
	return s.setJSON(ctx, constants.KeyPracticeLogs, logs)
}

// UpdatePracticeLogs is UpdateMoodLogs for practice logs
func (s *Storage) UpdatePracticeLogs(ctx context.Context, fn func([]models.PracticeLog) []models.PracticeLog) error {
	return updateList(ctx, s, constants.KeyPracticeLogs, fn)
}

// OnboardingComplete is true only when the flag holds the literal "true"
func (s *Storage) OnboardingComplete(ctx context.Context) (bool, error) {
	value, ok, err := s.Raw(ctx, constants.KeyOnboardingComplete)
	if err != nil {
		return false, err
	}
	return ok && value == constants.OnboardingCompleteValue, nil
}

func (s *Storage) SetOnboardingComplete(ctx context.Context) error {
	key := s.Key(constants.KeyOnboardingComplete)
	if err := s.kv.Set(ctx, key, constants.OnboardingCompleteValue); err != nil {
		return s.fail(OpSet, key, err)
	}
	return nil
}

func (s *Storage) ResetOnboarding(ctx context.Context) error {
	key := s.Key(constants.KeyOnboardingComplete)
	if err := s.kv.Delete(ctx, key); err != nil {
		return s.fail(OpDelete, key, err)
	}
	return nil
}

func (s *Storage) getJSON(ctx context.Context, name string, dst interface{}) (bool, error) {
	key := s.Key(name)
	value, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, s.fail(OpGet, key, err)
	}
	if !present(value, ok) {
		return false, nil
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return false, s.fail(OpDecode, key, err)
	}
	return true, nil
}

// present reports whether a stored value holds a record. An empty string or
// a JSON null counts as absent.
func present(value string, ok bool) bool {
	if !ok {
		return false
	}
	v := strings.TrimSpace(value)
	return v != "" && v != "null"
}

// codecError marks a failure inside an update function so it is classified
// as a decode or encode rather than a store write
type codecError struct {
	op  string
	err error
}

func (e *codecError) Error() string { return e.err.Error() }

func updateList[T any](ctx context.Context, s *Storage, name string, fn func([]T) []T) error {
	key := s.Key(name)
	apply := func(old string, ok bool) (string, error) {
		var logs []T
		if present(old, ok) {
			if err := json.Unmarshal([]byte(old), &logs); err != nil {
				return "", &codecError{op: OpDecode, err: err}
			}
		}
		if logs == nil {
			logs = []T{}
		}
		next := fn(logs)
		if next == nil {
			next = []T{}
		}
		data, err := json.Marshal(next)
		if err != nil {
			return "", &codecError{op: OpEncode, err: err}
		}
		return string(data), nil
	}

	if u, ok := s.kv.(kv.Updater); ok {
		return s.classify(OpSet, key, u.Update(ctx, key, apply))
	}

	old, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return s.fail(OpGet, key, err)
	}
	value, err := apply(old, ok)
	if err != nil {
		return s.classify(OpSet, key, err)
	}
	if err := s.kv.Set(ctx, key, value); err != nil {
		return s.fail(OpSet, key, err)
	}
	return nil
}

// classify fails with the codec op carried by err, or op otherwise
func (s *Storage) classify(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var ce *codecError
	if stderrors.As(err, &ce) {
		return s.fail(ce.op, key, ce.err)
	}
	return s.fail(op, key, err)
}

func (s *Storage) setJSON(ctx context.Context, name string, v interface{}) error {
	key := s.Key(name)
	data, err := json.Marshal(v)
	if err != nil {
		return s.fail(OpEncode, key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return s.fail(OpSet, key, err)
	}
	return nil
}

// fail logs a store failure at the boundary and classifies it
func (s *Storage) fail(op, key string, err error) error {
	logger.Error(fmt.Sprintf("Storage %s failed", op), "key", key, "error", err)
	return errors.NewStorageIO(op, key, err)
}
