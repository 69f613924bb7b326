package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("JAR_TEST_MODE") == "" {
			_ = os.Setenv("JAR_TEST_MODE", "1")
		}
	})
}
