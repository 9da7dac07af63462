package uploader

import (
	"os"

	"github.com/minios-linux/gcupload/achievement"
)

// MissingImages returns the image paths referenced by records that cannot
// be read under root, each listed once in record order.
func MissingImages(records []achievement.Record, root string) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, rec := range records {
		path := rec.ImagePath(root)
		if seen[path] {
			continue
		}
		seen[path] = true
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			missing = append(missing, path)
		}
	}
	return missing
}
