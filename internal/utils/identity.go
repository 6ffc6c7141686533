package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// InstanceIdentity is the stable identity of this device across restarts.
// The sync endpoints use it to attribute uploads to a device.
type InstanceIdentity struct {
	InstanceID string `json:"instance_id"`
}

// LoadOrGenerateIdentity checks the INSTANCE_ID env var first, then the
// identity file under dataDir, and generates a fresh id if neither exists.
func LoadOrGenerateIdentity(dataDir string) (*InstanceIdentity, error) {
	if envID := os.Getenv("INSTANCE_ID"); envID != "" {
		return &InstanceIdentity{InstanceID: envID}, nil
	}

	path := filepath.Join(dataDir, "identity.json")
	if data, err := os.ReadFile(path); err == nil {
		var ident InstanceIdentity
		if err := json.Unmarshal(data, &ident); err == nil && ident.InstanceID != "" {
			return &ident, nil
		}
		// Corrupt file: fall through and regenerate.
	}

	ident := InstanceIdentity{InstanceID: uuid.New().String()}
	data, err := json.MarshalIndent(&ident, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("persist instance identity: %w", err)
	}
	return &ident, nil
}
