package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment variables read by LoadEnv.
const (
	EnvSeed           = "COREVERIF_SEED"
	EnvNum            = "COREVERIF_NUM_INSTRUCTIONS"
	EnvCreateErrors   = "COREVERIF_CREATE_ERRORS"
	EnvPassiveResults = "COREVERIF_PASSIVE_RESULTS"
	EnvStallLimit     = "COREVERIF_STALL_LIMIT"
	EnvProgram        = "COREVERIF_PROGRAM"
	EnvRecord         = "COREVERIF_RECORD"
	EnvVerbose        = "COREVERIF_VERBOSE"
)

// LoadEnv loads the given .env files, if they exist, and applies the
// COREVERIF_* variables on top of c. Variables already set in the process
// environment win over the files.
func (c *Config) LoadEnv(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}

	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return errors.Wrap(err, "failed to load env file")
		}
	}

	if err := envUint(EnvSeed, &c.Seed); err != nil {
		return err
	}
	if err := envInt(EnvNum, &c.NumInstructions); err != nil {
		return err
	}
	if err := envInt(EnvStallLimit, &c.StallLimit); err != nil {
		return err
	}
	if err := envBool(EnvCreateErrors, &c.CreateErrors); err != nil {
		return err
	}
	if err := envBool(EnvPassiveResults, &c.PassiveResults); err != nil {
		return err
	}
	if err := envBool(EnvVerbose, &c.Verbose); err != nil {
		return err
	}

	if v := os.Getenv(EnvProgram); v != "" {
		c.ProgramPath = v
	}
	if v := os.Getenv(EnvRecord); v != "" {
		c.RecordPath = v
	}

	return nil
}

func envUint(key string, dst *uint64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	n, err := strconv.ParseUint(v, 0, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid %s", key)
	}
	*dst = n

	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.Wrapf(err, "invalid %s", key)
	}
	*dst = n

	return nil
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return errors.Wrapf(err, "invalid %s", key)
	}
	*dst = b

	return nil
}
