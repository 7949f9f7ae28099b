package cmd

import (
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the file given with -env into the environment. Without
// the flag a .env file in the working directory is used if there is one.
// Variables already set in the environment win.
func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
			log.Printf("no env file specified, using os.Environ only")
			return
		}
		configPath = ".env"
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}
