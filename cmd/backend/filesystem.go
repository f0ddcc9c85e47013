package backend

import (
	"os"
	"time"

	"github.com/spf13/afero"
)

type OS struct{}

func (o *OS) Getwd() (string, error) {
	return os.Getwd()
}

func (o *OS) Fs() afero.Fs {
	return afero.NewOsFs()
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
