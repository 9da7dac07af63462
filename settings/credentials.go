// Package settings provides storage for gcupload user credentials.
//
// Credentials are stored in the XDG data directory:
//
//	$XDG_DATA_HOME/gcupload/auth.json  (default: ~/.local/share/gcupload/auth.json)
//
// The file is a JSON object keyed by profile ID, where each value is a
// discriminated union on the "type" field:
//
//   - "api" holds a translation provider API key (google, groq, opencode,
//     custom-openai) and an optional endpoint URL
//   - "asc" holds an App Store Connect API key profile: key ID, issuer ID
//     and the path of the .p8 private key
//
// File permissions are 0600 (owner read/write only).
//
// Lookup order for translation API keys:
//  1. --api-key flag (highest priority)
//  2. GCUPLOAD_API_KEY, then the provider's own variable (GROQ_API_KEY, ...)
//  3. This credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dataDirName = "gcupload"
	fileName    = "auth.json"

	// DefaultProfile is the App Store Connect profile used when none is named.
	DefaultProfile = "appstoreconnect"
)

// Entry types.
const (
	TypeAPI = "api"
	TypeASC = "asc"
)

// ---------------------------------------------------------------------------
// Auth entry types (discriminated union on "type")
// ---------------------------------------------------------------------------

// Info is the discriminated union stored per profile in auth.json.
type Info struct {
	// Type discriminator: "api" or "asc"
	Type string `json:"type"`

	// API key fields (type == "api")
	Key string `json:"key,omitempty"`

	// Custom endpoint URL (custom-openai)
	BaseURL string `json:"baseUrl,omitempty"`

	// App Store Connect fields (type == "asc")
	KeyID    string `json:"keyId,omitempty"`
	IssuerID string `json:"issuerId,omitempty"` // empty for individual keys
	KeyFile  string `json:"keyFile,omitempty"`
}

// IsAPI returns true if this is an API key entry.
func (i *Info) IsAPI() bool {
	return i.Type == TypeAPI
}

// IsASC returns true if this is an App Store Connect key profile.
func (i *Info) IsASC() bool {
	return i.Type == TypeASC
}

// Store holds all credentials, keyed by profile ID.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// dataDir returns the XDG data directory for gcupload.
// Respects $XDG_DATA_HOME (falls back to ~/.local/share).
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

// filePath returns the path to the auth file.
func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// DataDir returns the gcupload data directory path.
func DataDir() (string, error) {
	return dataDir()
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return make(Store)
	}

	if store == nil {
		return make(Store)
	}

	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Get / Set / Delete
// ---------------------------------------------------------------------------

// Get returns the entry for a profile, or nil if not found.
func Get(id string) *Info {
	store := Load()
	return store[id]
}

// Set stores an entry (upsert).
func Set(id string, info *Info) error {
	store := Load()
	store[id] = info
	return Save(store)
}

// Remove deletes a stored entry.
func Remove(id string) error {
	store := Load()
	if _, ok := store[id]; !ok {
		return nil // Nothing to delete
	}
	delete(store, id)
	return Save(store)
}

// RemoveAll removes all stored credentials.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// API key helpers
// ---------------------------------------------------------------------------

// SetAPIKey stores an API key for a provider.
func SetAPIKey(providerID, key string) error {
	return SetAPIKeyWithBaseURL(providerID, key, "")
}

// SetAPIKeyWithBaseURL stores an API key and base URL for custom-openai.
func SetAPIKeyWithBaseURL(providerID, key, baseURL string) error {
	return Set(providerID, &Info{
		Type:    TypeAPI,
		Key:     key,
		BaseURL: baseURL,
	})
}

// GetAPIKey retrieves the stored API key for a provider.
// Returns empty string if not found or not an API key entry.
func GetAPIKey(providerID string) string {
	info := Get(providerID)
	if info == nil || !info.IsAPI() {
		return ""
	}
	return info.Key
}

// GetBaseURL retrieves the stored base URL for a provider.
func GetBaseURL(providerID string) string {
	info := Get(providerID)
	if info == nil {
		return ""
	}
	return info.BaseURL
}

// EnvVarForProvider returns the provider's conventional API key variable,
// or "" for providers that do not take one.
func EnvVarForProvider(providerID string) string {
	switch providerID {
	case "google":
		return "GOOGLE_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	case "opencode":
		return "OPENCODE_API_KEY"
	case "custom-openai":
		return "OPENAI_API_KEY"
	}
	return ""
}

// ResolveAPIKey returns the API key for a provider following the lookup
// order: flag, GCUPLOAD_API_KEY, the provider variable, the store.
func ResolveAPIKey(providerID, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("GCUPLOAD_API_KEY"); v != "" {
		return v
	}
	if env := EnvVarForProvider(providerID); env != "" {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return GetAPIKey(providerID)
}

// ---------------------------------------------------------------------------
// App Store Connect profiles
// ---------------------------------------------------------------------------

// SetASCKey stores an App Store Connect key profile. issuerID is empty for
// individual keys.
func SetASCKey(profile, keyID, issuerID, keyFile string) error {
	if profile == "" {
		profile = DefaultProfile
	}
	return Set(profile, &Info{
		Type:     TypeASC,
		KeyID:    keyID,
		IssuerID: issuerID,
		KeyFile:  keyFile,
	})
}

// GetASCKey returns the App Store Connect profile, or nil if not found.
func GetASCKey(profile string) *Info {
	if profile == "" {
		profile = DefaultProfile
	}
	info := Get(profile)
	if info == nil || !info.IsASC() {
		return nil
	}
	return info
}

// ---------------------------------------------------------------------------
// Display helpers
// ---------------------------------------------------------------------------

// MaskKey returns a masked version of a key/token for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
