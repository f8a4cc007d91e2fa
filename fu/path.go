package fu

import (
	"go-ml.dev/pkg/iokit"
	"path/filepath"
)

const ArtifactExt = ".yaml.xz"

/*
ArtifactPath returns the file of a memorized model with the storage key.
The file is placed into dir or, if dir is empty, into the iokit cache under go-ml/Models
*/
func ArtifactPath(dir, storageKey string) string {
	name := storageKey + ArtifactExt
	if dir != "" {
		return filepath.Join(dir, name)
	}
	return iokit.CacheFile(filepath.Join("go-ml", "Models", name))
}
