package config // package config loads application configuration from environment variables

import (
    "errors"  // errors joins multiple configuration problems
    "fmt"     // fmt formats configuration errors
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time parses durations

    "github.com/joho/godotenv" // godotenv loads a local .env file into the environment
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Policy carries the scheduling rules and rates;
// the remaining fields describe infrastructure.
type Config struct {
    Env         string        // application environment (e.g. "dev", "prod")
    Port        string        // HTTP port to listen on
    LogLevel    string        // debug, info, warn or error
    StoreDriver string        // "mysql" or "memory"
    DBUser      string        // database username
    DBPass      string        // database password (optional)
    DBHost      string        // database host address
    DBPort      string        // database port number
    DBName      string        // database name
    JWTSecret   string        // secret shared with the identity provider that signs staff tokens
    AMQPURL     string        // broker URL for lifecycle events (empty disables publishing)
    LockTTL     time.Duration // lease length of per-item scheduling locks
    AuditLogDir string        // directory the audit consumer appends to
    Policy      Policy        // scheduling rules, rates and fees
}

// LoadDotEnv reads a .env file from the working directory when one exists.
// A missing file is not an error; system environment variables are used.
func LoadDotEnv() bool {
    return godotenv.Load(".env") == nil
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables that are missing and values that fail to
// parse are reported as errors.
func Load() (Config, error) {
    var errs []error
    req := func(key string) string {
        v, err := must(key)
        if err != nil {
            errs = append(errs, err)
        }
        return v
    }
    cfg := Config{
        Env:         req("APP_ENV"),                        // environment (dev/test/prod)
        Port:        req("APP_PORT"),                       // port to bind the HTTP server
        LogLevel:    envStr("LOG_LEVEL", "info"),           // log verbosity
        StoreDriver: envStr("STORE_DRIVER", "memory"),      // persistence backend
        DBUser:      os.Getenv("DB_USER"),                  // database user
        DBPass:      os.Getenv("DB_PASS"),                  // database password (empty allowed)
        DBHost:      envStr("DB_HOST", "localhost"),        // database host
        DBPort:      envStr("DB_PORT", "3306"),             // database port
        DBName:      os.Getenv("DB_NAME"),                  // database name
        JWTSecret:   req("JWT_SECRET"),                     // secret used to verify staff tokens
        AMQPURL:     amqpURL(),                             // broker URL
        AuditLogDir: envStr("AUDIT_LOG_DIR", "logs"),       // audit log directory
    }
    lockTTL, err := durEnv("LOCK_TTL", 10*time.Second)
    if err != nil {
        errs = append(errs, err)
    }
    cfg.LockTTL = lockTTL

    if cfg.StoreDriver != "mysql" && cfg.StoreDriver != "memory" {
        errs = append(errs, fmt.Errorf("invalid STORE_DRIVER %q (want mysql or memory)", cfg.StoreDriver))
    }
    if cfg.StoreDriver == "mysql" {
        if cfg.DBUser == "" || cfg.DBName == "" {
            errs = append(errs, fmt.Errorf("DB_USER and DB_NAME are required when STORE_DRIVER=mysql"))
        }
    }

    policy, err := LoadPolicy()
    if err != nil {
        errs = append(errs, err)
    }
    cfg.Policy = policy

    if len(errs) > 0 {
        return Config{}, errors.Join(errs...)
    }
    return cfg, nil
}

// amqpURL honours both RABBITMQ_URL and AMQP_URL.  An empty result means
// lifecycle events are not published.
func amqpURL() string {
    if v := os.Getenv("RABBITMQ_URL"); v != "" {
        return v
    }
    return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.
func must(key string) (string, error) {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        return "", fmt.Errorf("missing required env var: %s", key)
    }
    return v, nil
}

// intEnv is like envInt but reports malformed values instead of falling
// back to the default.
func intEnv(key string, def int) (int, error) {
    s := os.Getenv(key)
    if s == "" {
        return def, nil
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        return 0, fmt.Errorf("invalid int for %s: %q", key, s)
    }
    return n, nil
}

func durEnv(key string, def time.Duration) (time.Duration, error) {
    s := os.Getenv(key)
    if s == "" {
        return def, nil
    }
    d, err := time.ParseDuration(s)
    if err != nil {
        return 0, fmt.Errorf("invalid duration for %s: %q", key, s)
    }
    return d, nil
}
