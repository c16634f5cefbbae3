package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"storefront/models"
)

// SettingDef declares a known site setting: the frontend key, the stored key and its type.
type SettingDef struct {
	CamelKey    string
	Key         string
	Type        string
	Description string
	Default     interface{}
}

var settingDefs = []SettingDef{
	{"siteName", "site_name", models.SettingTypeString, "Public name of the shop", "Storefront"},
	{"siteDescription", "site_description", models.SettingTypeString, "Short description shown in page metadata", ""},
	{"contactEmail", "contact_email", models.SettingTypeString, "Support email address", ""},
	{"contactPhone", "contact_phone", models.SettingTypeString, "Support phone number", ""},
	{"currency", "currency", models.SettingTypeString, "ISO currency code", "NGN"},
	{"taxRate", "tax_rate", models.SettingTypeNumber, "Tax rate in percent", 0.0},
	{"shippingCost", "shipping_cost", models.SettingTypeNumber, "Flat shipping cost", 0.0},
	{"freeShippingThreshold", "free_shipping_threshold", models.SettingTypeNumber, "Order subtotal above which shipping is free", 0.0},
	{"maintenanceMode", "maintenance_mode", models.SettingTypeBoolean, "Show the maintenance page", false},
	{"allowRegistration", "allow_registration", models.SettingTypeBoolean, "Allow new local accounts", true},
	{"socialLinks", "social_links", models.SettingTypeJSON, "Social network links", map[string]interface{}{}},
}

var (
	defsByCamel = map[string]SettingDef{}
	defsByKey   = map[string]SettingDef{}
)

func init() {
	for _, def := range settingDefs {
		defsByCamel[def.CamelKey] = def
		defsByKey[def.Key] = def
	}
}

// ToSnake converts a camelCase key to snake_case.
func ToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToCamel converts a snake_case key to camelCase.
func ToCamel(s string) string {
	parts := strings.Split(s, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
	}
	return strings.Join(parts, "")
}

// resolveSetting accepts either form of a key and returns the stored key and declared type.
// Unknown keys get a type inferred from value (nil value infers string).
func resolveSetting(key string, value interface{}) (string, string) {
	if def, ok := defsByCamel[key]; ok {
		return def.Key, def.Type
	}
	if def, ok := defsByKey[key]; ok {
		return def.Key, def.Type
	}
	return ToSnake(key), inferSettingType(value)
}

func inferSettingType(value interface{}) string {
	switch value.(type) {
	case bool:
		return models.SettingTypeBoolean
	case float64, float32, int, int64, int32, uint, json.Number:
		return models.SettingTypeNumber
	case map[string]interface{}, []interface{}:
		return models.SettingTypeJSON
	}
	return models.SettingTypeString
}

// SerializeSetting renders value as the stored text for the declared type.
func SerializeSetting(value interface{}, typ string) (string, error) {
	switch typ {
	case models.SettingTypeString:
		switch v := value.(type) {
		case nil:
			return "", nil
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		}
		return fmt.Sprint(value), nil
	case models.SettingTypeNumber:
		var f float64
		switch v := value.(type) {
		case float64:
			f = v
		case float32:
			f = float64(v)
		case int:
			f = float64(v)
		case int64:
			f = float64(v)
		case int32:
			f = float64(v)
		case uint:
			f = float64(v)
		case json.Number:
			parsed, err := v.Float64()
			if err != nil {
				return "", fmt.Errorf("%w: not a number", ErrValidation)
			}
			f = parsed
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return "", fmt.Errorf("%w: not a number", ErrValidation)
			}
			f = parsed
		default:
			return "", fmt.Errorf("%w: not a number", ErrValidation)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("%w: not a finite number", ErrValidation)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case models.SettingTypeBoolean:
		switch v := value.(type) {
		case bool:
			return strconv.FormatBool(v), nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return "", fmt.Errorf("%w: not a boolean", ErrValidation)
			}
			return strconv.FormatBool(b), nil
		}
		return "", fmt.Errorf("%w: not a boolean", ErrValidation)
	case models.SettingTypeJSON:
		b, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("%w: not serializable as json", ErrValidation)
		}
		return string(b), nil
	}
	return "", fmt.Errorf("%w: unknown setting type %q", ErrValidation, typ)
}

// DeserializeSetting is the inverse of SerializeSetting.
func DeserializeSetting(raw, typ string) (interface{}, error) {
	switch typ {
	case models.SettingTypeNumber:
		return strconv.ParseFloat(raw, 64)
	case models.SettingTypeBoolean:
		return strconv.ParseBool(raw)
	case models.SettingTypeJSON:
		if raw == "" {
			return nil, nil
		}
		var v interface{}
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return raw, nil
}

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// GetAll returns every setting keyed by its camelCase name with typed values.
func (r *SettingRepository) GetAll(ctx context.Context) (map[string]interface{}, error) {
	var settings []models.Setting
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&settings).Error; err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(settings))
	for _, s := range settings {
		value, err := DeserializeSetting(s.Value, s.Type)
		if err != nil {
			value = s.Value
		}
		out[ToCamel(s.Key)] = value
	}
	return out, nil
}

// Get accepts a camelCase or snake_case key and returns the row with its typed value.
func (r *SettingRepository) Get(ctx context.Context, key string) (*models.Setting, interface{}, error) {
	if strings.TrimSpace(key) == "" {
		return nil, nil, ErrNotFound
	}
	stored, _ := resolveSetting(key, nil)
	var setting models.Setting
	if err := r.db.WithContext(ctx).Where(&models.Setting{Key: stored}).First(&setting).Error; err != nil {
		return nil, nil, translate(err)
	}
	value, err := DeserializeSetting(setting.Value, setting.Type)
	if err != nil {
		value = setting.Value
	}
	return &setting, value, nil
}

// Bool reads a boolean setting, falling back to def when missing or malformed.
func (r *SettingRepository) Bool(ctx context.Context, key string, def bool) bool {
	_, value, err := r.Get(ctx, key)
	if err != nil {
		return def
	}
	b, ok := value.(bool)
	if !ok {
		return def
	}
	return b
}

// String reads a string setting, falling back to def when missing or not a string.
func (r *SettingRepository) String(ctx context.Context, key, def string) string {
	_, value, err := r.Get(ctx, key)
	if err != nil {
		return def
	}
	str, ok := value.(string)
	if !ok {
		return def
	}
	return str
}

func upsertSetting(tx *gorm.DB, key, typ string, value interface{}) error {
	raw, err := SerializeSetting(value, typ)
	if err != nil {
		return &ValidationError{Field: key, Message: fmt.Sprintf("invalid value for %s: %v", key, err)}
	}

	var setting models.Setting
	err = tx.Where(&models.Setting{Key: key}).First(&setting).Error
	switch {
	case err == nil:
		setting.Value = raw
		setting.Type = typ
		return tx.Save(&setting).Error
	case translate(err) == ErrNotFound:
		setting = models.Setting{Key: key, Value: raw, Type: typ}
		if def, ok := defsByKey[key]; ok {
			setting.Description = def.Description
		}
		return tx.Create(&setting).Error
	}
	return err
}

// Set writes a single setting. An empty typ uses the declared or inferred type.
func (r *SettingRepository) Set(ctx context.Context, key string, value interface{}, typ string) error {
	stored, declared := resolveSetting(key, value)
	if typ == "" {
		typ = declared
	}
	return upsertSetting(r.db.WithContext(ctx), stored, typ, value)
}

// UpdateMany writes all values in one transaction; any failure leaves every key untouched.
func (r *SettingRepository) UpdateMany(ctx context.Context, values map[string]interface{}) error {
	if len(values) == 0 {
		return invalid("settings", "no settings provided")
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, k := range keys {
			if strings.TrimSpace(k) == "" {
				return invalid("settings", "setting key must not be empty")
			}
			stored, typ := resolveSetting(k, values[k])
			if err := upsertSetting(tx, stored, typ, values[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SettingRepository) Delete(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrNotFound
	}
	stored, _ := resolveSetting(key, nil)
	result := r.db.WithContext(ctx).Where(&models.Setting{Key: stored}).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedDefaults inserts declared settings that do not exist yet.
func (r *SettingRepository) SeedDefaults(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, def := range settingDefs {
			var count int64
			if err := tx.Model(&models.Setting{}).Where(&models.Setting{Key: def.Key}).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			raw, err := SerializeSetting(def.Default, def.Type)
			if err != nil {
				return err
			}
			setting := models.Setting{Key: def.Key, Value: raw, Type: def.Type, Description: def.Description}
			if err := tx.Create(&setting).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
