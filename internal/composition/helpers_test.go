package composition

import "os"

func writeTempFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
