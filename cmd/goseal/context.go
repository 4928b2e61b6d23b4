package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/shandysiswandi/goseal/internal/pkg/clock"
	"github.com/shandysiswandi/goseal/internal/pkg/config"
	"github.com/shandysiswandi/goseal/internal/pkg/hash"
	"github.com/shandysiswandi/goseal/internal/pkg/jwt"
	"github.com/shandysiswandi/goseal/internal/pkg/uid"
)

const defaultBcryptCost = 10

type commandContext struct {
	configFlag *string
	outputFlag *string

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func newCommandContext(configFlag, outputFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		outputFlag: outputFlag,
	}
}

// ensureConfig loads the configuration once. An explicit --config must
// exist; the environment default may be absent, leaving every key unset.
func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		path := ""
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}

		if path == "" {
			path = config.Path()
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				c.config, c.configErr = config.NewViperFromBytes("yaml", nil)
				return
			}
		}

		cfg, err := config.NewViper(path)
		if err != nil {
			c.configErr = fmt.Errorf("load config %s: %w", path, err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) output() string {
	if c.outputFlag == nil {
		return outputTable
	}
	return strings.ToLower(strings.TrimSpace(*c.outputFlag))
}

func (c *commandContext) hashers() (*hash.Multi, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	cost := cfg.GetInt("hash.bcrypt.cost")
	if cost == 0 {
		cost = defaultBcryptCost
	}

	name := cfg.GetString("hash.primary")
	if strings.TrimSpace(name) == "" {
		name = hash.AlgorithmBcrypt.String()
	}
	primary, err := hash.ParseAlgorithm(name)
	if err != nil {
		return nil, err
	}

	return hash.NewMulti(primary,
		hash.NewBcrypt(cost, cfg.GetString("hash.bcrypt.pepper")),
		hash.NewArgon2id(cfg.GetString("hash.argon2id.pepper")),
	)
}

func (c *commandContext) signer() (jwt.JWT, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	return jwt.NewHS512(jwt.Config{
		Secret:    []byte(cfg.GetString("jwt.secret")),
		Issuer:    cfg.GetString("jwt.issuer"),
		Audiences: cfg.GetArray("jwt.audiences"),
		TTL:       cfg.GetMinute("jwt.ttl_minutes"),
		Clock:     clock.New(),
		UUID:      uid.NewUUID(),
	})
}
