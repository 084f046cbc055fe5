package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/recollect-dev/recollect/pkg/adapter"
	"github.com/recollect-dev/recollect/pkg/index"
	"github.com/recollect-dev/recollect/pkg/policy"
	"github.com/recollect-dev/recollect/pkg/repository"
	"github.com/recollect-dev/recollect/pkg/service/extract"
	"github.com/recollect-dev/recollect/pkg/usecase/memory"
	"github.com/recollect-dev/recollect/pkg/usecase/session"
	"github.com/recollect-dev/recollect/pkg/utils/logging"
)

// config holds configuration values
type config struct {
	configFile string
	logLevel   string

	// Session
	user string

	// Record store
	dbPath            string
	firestoreProject  string
	firestoreDatabase string

	// Similarity index
	indexPath string

	// Policy
	policyDir string

	// Gemini
	geminiProject   string
	geminiLocation  string
	generativeModel string
	embeddingModel  string
}

// fileConfig mirrors config for the optional YAML config file
type fileConfig struct {
	User              string `yaml:"user"`
	DBPath            string `yaml:"db_path"`
	FirestoreProject  string `yaml:"firestore_project"`
	FirestoreDatabase string `yaml:"firestore_database"`
	IndexPath         string `yaml:"index_path"`
	PolicyDir         string `yaml:"policy_dir"`
	GeminiProject     string `yaml:"gemini_project"`
	GeminiLocation    string `yaml:"gemini_location"`
	GenerativeModel   string `yaml:"generative_model"`
	EmbeddingModel    string `yaml:"embedding_model"`
	LogLevel          string `yaml:"log_level"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML config file",
			Sources:     cli.EnvVars("RECOLLECT_CONFIG"),
			Destination: &cfg.configFile,
		},
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "User ID owning the memories",
			Value:       "default",
			Sources:     cli.EnvVars("RECOLLECT_USER"),
			Destination: &cfg.user,
		},
		&cli.StringFlag{
			Name:        "db-path",
			Usage:       "Path to the SQLite record store",
			Sources:     cli.EnvVars("RECOLLECT_DB_PATH"),
			Destination: &cfg.dbPath,
		},
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "Use Firestore as record store in this Google Cloud project",
			Sources:     cli.EnvVars("RECOLLECT_FIRESTORE_PROJECT"),
			Destination: &cfg.firestoreProject,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("RECOLLECT_FIRESTORE_DATABASE"),
			Destination: &cfg.firestoreDatabase,
		},
		&cli.StringFlag{
			Name:        "index-path",
			Usage:       "Directory for the persistent similarity index",
			Sources:     cli.EnvVars("RECOLLECT_INDEX_PATH"),
			Destination: &cfg.indexPath,
		},
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego policies gating what gets stored",
			Sources:     cli.EnvVars("RECOLLECT_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("RECOLLECT_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "generative-model",
			Usage:       "Model used for extraction and answers",
			Sources:     cli.EnvVars("RECOLLECT_GENERATIVE_MODEL"),
			Destination: &cfg.generativeModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Model used for embeddings",
			Sources:     cli.EnvVars("RECOLLECT_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
	}
}

// setup finalizes the configuration before a command runs: values from
// the YAML file fill in whatever flags and env vars left unset, then
// logging is configured. Flag precedence is flag > env > file > default.
func (cfg *config) setup(cmd *cli.Command) error {
	if err := cfg.applyFile(cmd); err != nil {
		return err
	}

	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))
	return nil
}

func (cfg *config) applyFile(cmd *cli.Command) error {
	path := cfg.configFile
	if path == "" {
		path = filepath.Join(baseDir(), "config.yml")
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
	}

	set := func(flagName string, dst *string, value string) {
		if value != "" && !cmd.IsSet(flagName) {
			*dst = value
		}
	}
	set("user", &cfg.user, fc.User)
	set("db-path", &cfg.dbPath, fc.DBPath)
	set("firestore-project", &cfg.firestoreProject, fc.FirestoreProject)
	set("firestore-database", &cfg.firestoreDatabase, fc.FirestoreDatabase)
	set("index-path", &cfg.indexPath, fc.IndexPath)
	set("policy-dir", &cfg.policyDir, fc.PolicyDir)
	set("gemini-project", &cfg.geminiProject, fc.GeminiProject)
	set("gemini-location", &cfg.geminiLocation, fc.GeminiLocation)
	set("generative-model", &cfg.generativeModel, fc.GenerativeModel)
	set("embedding-model", &cfg.embeddingModel, fc.EmbeddingModel)
	set("log-level", &cfg.logLevel, fc.LogLevel)

	return nil
}

// baseDir is where local state lives unless configured otherwise
func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".recollect"
	}
	return filepath.Join(home, ".recollect")
}

// newRepository creates the record store: Firestore when a project is
// configured, local SQLite otherwise
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.firestoreProject != "" {
		repo, err := repository.NewFirestore(ctx, cfg.firestoreProject, cfg.firestoreDatabase)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create firestore repository")
		}
		return repo, nil
	}

	path := cfg.dbPath
	if path == "" {
		path = filepath.Join(baseDir(), "memories.db")
	}
	repo, err := repository.NewSQLite(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open record store")
	}
	return repo, nil
}

// newIndex creates the persistent similarity index
func (cfg *config) newIndex() (index.Index, error) {
	path := cfg.indexPath
	if path == "" {
		path = filepath.Join(baseDir(), "index")
	}
	idx, err := index.NewChromem(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open similarity index")
	}
	return idx, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	var opts []adapter.GeminiOption
	if cfg.generativeModel != "" {
		opts = append(opts, adapter.WithGenerativeModel(cfg.generativeModel))
	}
	if cfg.embeddingModel != "" {
		opts = append(opts, adapter.WithEmbeddingModel(cfg.embeddingModel))
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
}

// newStorage creates a new Storage adapter instance
func (cfg *config) newStorage(ctx context.Context, bucketName string) (adapter.Storage, error) {
	if bucketName == "" {
		return nil, goerr.New("bucket name is required")
	}

	storage, err := adapter.NewStorage(ctx, bucketName)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// newMemoryUseCase wires the coordinator with its stores. The Gemini
// client is returned too so callers can layer on it without dialing
// Vertex a second time. The returned closer releases the store handles.
func (cfg *config) newMemoryUseCase(ctx context.Context) (*memory.UseCase, adapter.Gemini, func(), error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	idx, err := cfg.newIndex()
	if err != nil {
		_ = repo.Close()
		return nil, nil, nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		_ = repo.Close()
		_ = idx.Close()
		return nil, nil, nil, err
	}

	closer := func() {
		if err := idx.Close(); err != nil {
			logging.Default().Warn("failed to close index", "error", err)
		}
		if err := repo.Close(); err != nil {
			logging.Default().Warn("failed to close record store", "error", err)
		}
	}

	return memory.New(repo, idx, adapter.NewEmbedder(gemini)), gemini, closer, nil
}

// newLocalUseCase wires the coordinator without the LLM-backed
// embedder, for read paths that never embed
func (cfg *config) newLocalUseCase(ctx context.Context) (*memory.UseCase, func(), error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	idx, err := cfg.newIndex()
	if err != nil {
		_ = repo.Close()
		return nil, nil, err
	}

	closer := func() {
		if err := idx.Close(); err != nil {
			logging.Default().Warn("failed to close index", "error", err)
		}
		if err := repo.Close(); err != nil {
			logging.Default().Warn("failed to close record store", "error", err)
		}
	}

	return memory.New(repo, idx, nil), closer, nil
}

// newSessionUseCase wires the full session on top of the coordinator,
// sharing the coordinator's Gemini client
func (cfg *config) newSessionUseCase(ctx context.Context) (*session.UseCase, func(), error) {
	memories, gemini, closer, err := cfg.newMemoryUseCase(ctx)
	if err != nil {
		return nil, nil, err
	}

	gate, err := policy.New(ctx, cfg.policyDir)
	if err != nil {
		closer()
		return nil, nil, err
	}

	uc := session.New(memories, extract.New(gemini), gemini, session.WithStoreGate(gate))
	return uc, closer, nil
}
