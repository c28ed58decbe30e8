package networkfile

import (
	"context"
	"errors"
	"fmt"
	"os"

	dto "nft-storefront/internal/adapter/storage/networkfile/dto"
	"nft-storefront/internal/domain/entity"
	domainRepo "nft-storefront/internal/domain/repository"
	"nft-storefront/internal/pkg/apperrors"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Compile-time check
var _ domainRepo.NetworkRepository = (*Repository)(nil)

// Repository reads extra network descriptors from a YAML file.
type Repository struct {
	path   string
	logger *zap.Logger
}

// NewRepository creates a file-backed network repository. An empty path yields no networks.
func NewRepository(path string, logger *zap.Logger) domainRepo.NetworkRepository {
	return &Repository{
		path:   path,
		logger: logger.Named("NetworkFileStorage"),
	}
}

// LoadNetworks parses the file and returns its valid entries.
func (r *Repository) LoadNetworks(_ context.Context) ([]entity.NetworkDescriptor, []entity.NetworkDescriptor, error) {
	if r.path == "" {
		return nil, nil, nil
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: networks file %s", apperrors.ErrNotFound, r.path)
		}
		return nil, nil, fmt.Errorf("failed to read networks file %s: %w", r.path, err)
	}

	var raw dto.FileRaw
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to parse networks file %s: %v", apperrors.ErrInvalidInput, r.path, err)
	}

	mainnet, testnet := toDomainNetworks(raw.Networks, r.logger)
	r.logger.Info("Loaded custom networks",
		zap.String("path", r.path),
		zap.Int("mainnet", len(mainnet)),
		zap.Int("testnet", len(testnet)),
	)
	return mainnet, testnet, nil
}
