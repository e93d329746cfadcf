package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"sidepanel/internal/assets"
	"sidepanel/internal/models"
)

type ModelCatalogService interface {
	Startup() error
	ListModelGroups() ([]models.LLMModelGroup, error)
	ListModels(provider models.Provider) []models.LLMModel
	DefaultModel(provider models.Provider) string
	IsKnownModel(provider models.Provider, apiName string) bool
}

type modelCatalogService struct {
	data []byte

	mu            sync.RWMutex
	providerOrder []string
	providerNames map[string]string
	defaults      map[string]string
	models        map[string][]catalogModel
}

type catalogModel struct {
	Key         string
	ProviderID  string
	Provider    string
	DisplayName string
	APIName     string
}

type rawModelFile struct {
	Providers []rawProvider `json:"providers"`
}

type rawProvider struct {
	ID           string     `json:"id"`
	DisplayName  string     `json:"displayName"`
	DefaultModel string     `json:"defaultModel"`
	Models       []rawModel `json:"models"`
}

type rawModel struct {
	DisplayName string `json:"displayName"`
	APIName     string `json:"apiName"`
}

// NewModelCatalogService reads the embedded catalog.
func NewModelCatalogService() ModelCatalogService {
	return NewModelCatalogServiceFromJSON(assets.ModelsData)
}

func NewModelCatalogServiceFromJSON(data []byte) ModelCatalogService {
	return &modelCatalogService{
		data:          data,
		providerNames: make(map[string]string),
		defaults:      make(map[string]string),
		models:        make(map[string][]catalogModel),
	}
}

func (s *modelCatalogService) Startup() error {
	var parsed rawModelFile
	if err := json.Unmarshal(s.data, &parsed); err != nil {
		return fmt.Errorf("parse models asset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.providerOrder = make([]string, 0, len(parsed.Providers))
	for _, provider := range parsed.Providers {
		providerID := strings.TrimSpace(provider.ID)
		if providerID == "" {
			continue
		}
		if !models.Provider(providerID).Valid() {
			return fmt.Errorf("models asset lists unsupported provider %q", providerID)
		}
		providerName := strings.TrimSpace(provider.DisplayName)
		s.providerNames[providerID] = providerName
		s.defaults[providerID] = strings.TrimSpace(provider.DefaultModel)
		s.providerOrder = append(s.providerOrder, providerID)

		seen := make(map[string]bool, len(provider.Models))
		list := make([]catalogModel, 0, len(provider.Models))
		for _, mdl := range provider.Models {
			apiName := strings.TrimSpace(mdl.APIName)
			if apiName == "" || seen[apiName] {
				continue
			}
			seen[apiName] = true
			display := strings.TrimSpace(mdl.DisplayName)
			if display == "" {
				display = apiName
			}
			list = append(list, catalogModel{
				Key:         providerID + "|" + apiName,
				ProviderID:  providerID,
				Provider:    providerName,
				DisplayName: display,
				APIName:     apiName,
			})
		}
		s.models[providerID] = list
	}
	return nil
}

// ListModelGroups keeps the catalog order, which is the dropdown order.
func (s *modelCatalogService) ListModelGroups() ([]models.LLMModelGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]models.LLMModelGroup, 0, len(s.providerOrder))
	for _, providerID := range s.providerOrder {
		groups = append(groups, models.LLMModelGroup{
			ProviderID:   providerID,
			ProviderName: s.providerName(providerID),
			Models:       s.listLocked(providerID),
		})
	}
	return groups, nil
}

func (s *modelCatalogService) ListModels(provider models.Provider) []models.LLMModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(string(provider))
}

// DefaultModel is the name shown when the record has no model for provider.
func (s *modelCatalogService) DefaultModel(provider models.Provider) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults[string(provider)]
}

func (s *modelCatalogService) IsKnownModel(provider models.Provider, apiName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, mdl := range s.models[string(provider)] {
		if mdl.APIName == apiName {
			return true
		}
	}
	return false
}

func (s *modelCatalogService) listLocked(providerID string) []models.LLMModel {
	def := s.defaults[providerID]
	out := make([]models.LLMModel, 0, len(s.models[providerID]))
	for _, mdl := range s.models[providerID] {
		out = append(out, models.LLMModel{
			Key:          mdl.Key,
			DisplayName:  mdl.DisplayName,
			APIName:      mdl.APIName,
			ProviderID:   mdl.ProviderID,
			ProviderName: mdl.Provider,
			Default:      mdl.APIName == def,
		})
	}
	return out
}

func (s *modelCatalogService) providerName(providerID string) string {
	if name, ok := s.providerNames[providerID]; ok && strings.TrimSpace(name) != "" {
		return name
	}
	return providerID
}
