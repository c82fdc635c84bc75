package vault

import (
	"errors"
	"log/slog"
	"time"

	"github.com/tobischo/gokeepasslib/v3"
	"github.com/tobischo/gokeepasslib/v3/wrappers"
)

// Имена полей записи окружения.
const (
	fieldTitle    = "Title"
	fieldUserName = "UserName"
	fieldPassword = "Password"
	fieldURL      = "URL"
)

// CustomDataKeyLastEnvironment - ключ метаданных с id окружения последнего входа.
const CustomDataKeyLastEnvironment = "ReportKeeperLastEnvironment"

// ErrNotInitialized - база или ее содержимое не инициализированы.
var ErrNotInitialized = errors.New("база данных, ее содержимое или корневая группа не инициализированы")

// Credentials - учетные данные окружения.
type Credentials struct {
	EnvironmentID string
	URL           string
	UserName      string
	Token         string
}

// TokenFor возвращает учетные данные окружения envID. ok = false, если записи нет.
func TokenFor(db *gokeepasslib.Database, envID string) (Credentials, bool) {
	entry := findEntry(db, envID)
	if entry == nil {
		return Credentials{}, false
	}
	return Credentials{
		EnvironmentID: envID,
		URL:           entry.GetContent(fieldURL),
		UserName:      entry.GetContent(fieldUserName),
		Token:         entry.GetPassword(),
	}, true
}

// SetToken сохраняет токен окружения: обновляет существующую запись или создает новую.
// Также запоминает окружение как последнее использованное.
func SetToken(db *gokeepasslib.Database, c Credentials) error {
	if db == nil || db.Content == nil || db.Content.Root == nil || len(db.Content.Root.Groups) == 0 {
		return ErrNotInitialized
	}

	now := wrappers.TimeWrapper{Time: time.Now().UTC()}
	if entry := findEntry(db, c.EnvironmentID); entry != nil {
		setValue(entry, fieldURL, c.URL, false)
		setValue(entry, fieldUserName, c.UserName, false)
		setValue(entry, fieldPassword, c.Token, true)
		entry.Times.LastModificationTime = &now
		slog.Debug("Обновлен токен окружения", "env", c.EnvironmentID)
	} else {
		entry := gokeepasslib.NewEntry()
		setValue(&entry, fieldTitle, c.EnvironmentID, false)
		setValue(&entry, fieldURL, c.URL, false)
		setValue(&entry, fieldUserName, c.UserName, false)
		setValue(&entry, fieldPassword, c.Token, true)
		root := &db.Content.Root.Groups[0]
		root.Entries = append(root.Entries, entry)
		slog.Debug("Добавлен токен окружения", "env", c.EnvironmentID)
	}

	if db.Content.Meta != nil {
		db.Content.Meta.CustomData = setCustomDataValue(db.Content.Meta.CustomData, CustomDataKeyLastEnvironment, c.EnvironmentID)
	}
	return nil
}

// RemoveToken удаляет запись окружения. Возвращает false, если записи не было.
func RemoveToken(db *gokeepasslib.Database, envID string) bool {
	if db == nil || db.Content == nil || db.Content.Root == nil {
		return false
	}
	return removeEntry(db.Content.Root.Groups, envID)
}

// LastEnvironment возвращает id окружения последнего входа.
func LastEnvironment(db *gokeepasslib.Database) string {
	if db == nil || db.Content == nil || db.Content.Meta == nil {
		return ""
	}
	for _, item := range db.Content.Meta.CustomData {
		if item.Key == CustomDataKeyLastEnvironment {
			return item.Value
		}
	}
	return ""
}

// Environments возвращает id всех окружений, для которых сохранены токены.
func Environments(db *gokeepasslib.Database) []string {
	var ids []string
	for _, e := range allEntries(db) {
		ids = append(ids, e.GetTitle())
	}
	return ids
}

func allEntries(db *gokeepasslib.Database) []gokeepasslib.Entry {
	var entries []gokeepasslib.Entry
	if db == nil || db.Content == nil || db.Content.Root == nil {
		return entries
	}
	collectEntries(&entries, db.Content.Root.Groups)
	return entries
}

func collectEntries(entries *[]gokeepasslib.Entry, groups []gokeepasslib.Group) {
	for _, group := range groups {
		*entries = append(*entries, group.Entries...)
		collectEntries(entries, group.Groups)
	}
}

// findEntry ищет запись окружения по Title во всех группах.
func findEntry(db *gokeepasslib.Database, envID string) *gokeepasslib.Entry {
	if db == nil || db.Content == nil || db.Content.Root == nil {
		return nil
	}
	return findInGroups(db.Content.Root.Groups, envID)
}

func findInGroups(groups []gokeepasslib.Group, envID string) *gokeepasslib.Entry {
	for i := range groups {
		group := &groups[i]
		for j := range group.Entries {
			if group.Entries[j].GetTitle() == envID {
				return &group.Entries[j]
			}
		}
		if entry := findInGroups(group.Groups, envID); entry != nil {
			return entry
		}
	}
	return nil
}

func removeEntry(groups []gokeepasslib.Group, envID string) bool {
	for i := range groups {
		group := &groups[i]
		for j := range group.Entries {
			if group.Entries[j].GetTitle() == envID {
				group.Entries = append(group.Entries[:j], group.Entries[j+1:]...)
				return true
			}
		}
		if removeEntry(group.Groups, envID) {
			return true
		}
	}
	return false
}

// setValue обновляет или добавляет поле записи.
func setValue(entry *gokeepasslib.Entry, key, value string, protected bool) {
	for i := range entry.Values {
		if entry.Values[i].Key == key {
			entry.Values[i].Value.Content = value
			entry.Values[i].Value.Protected = wrappers.NewBoolWrapper(protected)
			return
		}
	}
	entry.Values = append(entry.Values, gokeepasslib.ValueData{
		Key:   key,
		Value: gokeepasslib.V{Content: value, Protected: wrappers.NewBoolWrapper(protected)},
	})
}

// setCustomDataValue обновляет или добавляет значение в слайс CustomData.
func setCustomDataValue(customData []gokeepasslib.CustomData, key, value string) []gokeepasslib.CustomData {
	for i := range customData {
		if customData[i].Key == key {
			customData[i].Value = value
			return customData
		}
	}
	return append(customData, gokeepasslib.CustomData{Key: key, Value: value})
}
