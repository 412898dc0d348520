// Command generate_demo creates a demo installation with sample
// hospital units, users and stock data.
// Usage: go run cmd/generate_demo/main.go [-data-dir path]
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/tavares/hospstock/internal/auth"
	"github.com/tavares/hospstock/internal/config"
	"github.com/tavares/hospstock/internal/database/categories"
	"github.com/tavares/hospstock/internal/database/movements"
	"github.com/tavares/hospstock/internal/database/products"
	"github.com/tavares/hospstock/internal/database/sectors"
	"github.com/tavares/hospstock/internal/database/suppliers"
	"github.com/tavares/hospstock/internal/database/users"
	"github.com/tavares/hospstock/internal/entities"
	"github.com/tavares/hospstock/internal/logging"
	"github.com/tavares/hospstock/internal/tenant"
)

const defaultDemoDataDir = "./demo"

const (
	demoAdminEmail    = "admin@demo.local"
	demoAdminPassword = "demo admin access"
	demoNurseEmail    = "nurse@demo.local"
	demoNursePassword = "demo nurse access"
)

func main() {
	dataDir := flag.String("data-dir", defaultDemoDataDir, "directory for the demo databases")
	flag.Parse()

	log.Printf("Generating demo installation at %s...", *dataDir)

	// Delete any existing demo data to start fresh
	if err := os.RemoveAll(*dataDir); err != nil {
		log.Fatalf("Failed to remove existing demo data: %v", err)
	}
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create demo data directory: %v", err)
	}

	zlog, err := logging.New(false)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	manager := newManager(*dataDir, zlog)
	defer manager.CloseAll()

	ctx := context.Background()
	if _, err := manager.CentralDB(ctx); err != nil {
		log.Fatalf("Failed to initialize central database: %v", err)
	}

	registerUnits(manager)
	createUsers(ctx, manager)

	for _, unitID := range []string{"north_wing", "pharmacy"} {
		seedUnit(ctx, manager, unitID)
	}

	log.Println("Demo installation generated successfully!")
	log.Printf("Admin login: %s / %s", demoAdminEmail, demoAdminPassword)
	log.Printf("Nurse login: %s / %s", demoNurseEmail, demoNursePassword)
}

func newManager(dataDir string, zlog *zap.SugaredLogger) *tenant.Manager {
	registry := tenant.NewRegistry(dataDir, config.DefaultCentralFile, nil, zlog)
	engines := tenant.NewEngineRegistry(tenant.PoolConfig{}, zlog)
	return tenant.NewManager(registry, engines, zlog)
}

func registerUnits(manager *tenant.Manager) {
	units := []tenant.Descriptor{
		{ID: "north_wing", DisplayName: "North Wing", Description: "Inpatient ward, floors 2-4"},
		{ID: "pharmacy", DisplayName: "Central Pharmacy", Description: "Hospital pharmacy stock room"},
	}

	for _, d := range units {
		if err := manager.Registry().RegisterUnit(d); err != nil {
			log.Fatalf("Failed to register unit %s: %v", d.ID, err)
		}
		log.Printf("Registered unit: %s (%s)", d.ID, d.DisplayName)
	}
}

func createUsers(ctx context.Context, manager *tenant.Manager) {
	repo := users.NewRepository(manager)
	service := auth.NewService(repo, config.Auth{BcryptCost: 10})

	admin, err := service.CreateUser(ctx, "Demo Admin", demoAdminEmail, demoAdminPassword, entities.RoleAdmin)
	if err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}
	log.Printf("Created admin: %s", admin.Email)

	nurse, err := service.CreateUser(ctx, "Demo Nurse", demoNurseEmail, demoNursePassword, entities.RoleUser)
	if err != nil {
		log.Fatalf("Failed to create nurse user: %v", err)
	}
	if err := repo.GrantUnits(ctx, nurse.ID, []string{"north_wing"}); err != nil {
		log.Fatalf("Failed to grant units to nurse: %v", err)
	}
	log.Printf("Created nurse: %s (access: north_wing)", nurse.Email)
}

// seedUnit fills one unit database with catalog entries, products and
// a short movement history.
func seedUnit(ctx context.Context, manager *tenant.Manager, unitID string) {
	adapter, err := manager.Resolve(ctx, unitID)
	if err != nil {
		log.Fatalf("Failed to resolve unit %s: %v", unitID, err)
	}

	seedCatalog(ctx, adapter, unitID)

	productRepo := products.NewRepository(adapter)
	movementRepo := movements.NewRepository(adapter)

	for _, cfg := range demoProducts() {
		p := cfg.product
		if err := productRepo.Create(ctx, &p); err != nil {
			log.Printf("Failed to create product %s in %s: %v", p.Name, unitID, err)
			continue
		}

		// Stock the product through recorded movements so the history
		// is consistent with the quantity.
		entry := entities.Movement{
			ProductID: p.ID,
			Direction: entities.MovementIn,
			Quantity:  cfg.opening,
			UserID:    1,
			Source:    "Opening inventory",
			Invoice:   "DEMO-0001",
		}
		if err := movementRepo.Record(ctx, &entry); err != nil {
			log.Printf("Failed to record opening stock for %s: %v", p.Name, err)
			continue
		}

		if cfg.consumed > 0 {
			exit := entities.Movement{
				ProductID:   p.ID,
				Direction:   entities.MovementOut,
				Quantity:    cfg.consumed,
				UserID:      1,
				Destination: "ICU",
				Reason:      "Routine consumption",
			}
			if err := movementRepo.Record(ctx, &exit); err != nil {
				log.Printf("Failed to record consumption for %s: %v", p.Name, err)
			}
		}
	}

	log.Printf("Seeded unit: %s", unitID)
}

func seedCatalog(ctx context.Context, adapter tenant.Adapter, unitID string) {
	categoryRepo := categories.NewRepository(adapter)
	for _, c := range []entities.Category{
		{Name: "dressing", Description: "Wound care and dressing material"},
		{Name: "medication", Description: "Medicines and pharmaceuticals"},
		{Name: "disposable", Description: "Single-use supplies"},
	} {
		if err := categoryRepo.Create(ctx, &c); err != nil {
			log.Printf("Failed to create category %s in %s: %v", c.Name, unitID, err)
		}
	}

	sectorRepo := sectors.NewRepository(adapter)
	for _, s := range []entities.Sector{
		{Name: "ICU", Description: "Intensive care unit", Responsible: "Dr. Almeida"},
		{Name: "Emergency", Description: "Emergency department", Responsible: "Dr. Costa"},
	} {
		if err := sectorRepo.Create(ctx, &s); err != nil {
			log.Printf("Failed to create sector %s in %s: %v", s.Name, unitID, err)
		}
	}

	supplierRepo := suppliers.NewRepository(adapter)
	for _, s := range []entities.Supplier{
		{Name: "MedSupply Ltda", TaxID: "12.345.678/0001-90", Phone: "+55 11 5555 0100", Email: "sales@medsupply.example"},
		{Name: "Hospitalar Distribuidora", TaxID: "98.765.432/0001-10", Phone: "+55 11 5555 0200", Email: "orders@hospitalar.example"},
	} {
		if err := supplierRepo.Create(ctx, &s); err != nil {
			log.Printf("Failed to create supplier %s in %s: %v", s.Name, unitID, err)
		}
	}
}

// productConfig holds a product and its opening and consumed stock for
// deferred movement recording.
type productConfig struct {
	product  entities.Product
	opening  int64
	consumed int64
}

func demoProducts() []productConfig {
	return []productConfig{
		{
			product: entities.Product{
				Name:          "Gauze 10x10",
				Description:   "Sterile gauze pads, pack of 10",
				Category:      "dressing",
				Barcode:       "7891000100103",
				UnitOfMeasure: "pack",
				MinStock:      20,
				UserID:        1,
			},
			opening:  120,
			consumed: 35,
		},
		{
			product: entities.Product{
				Name:          "Saline 0.9% 500ml",
				Description:   "Sodium chloride solution for infusion",
				Category:      "medication",
				Barcode:       "7891000200308",
				UnitOfMeasure: "bottle",
				MinStock:      30,
				UserID:        1,
			},
			opening:  200,
			consumed: 180,
		},
		{
			product: entities.Product{
				Name:          "Nitrile gloves M",
				Description:   "Powder-free examination gloves, box of 100",
				Category:      "disposable",
				Barcode:       "7891000300401",
				UnitOfMeasure: "box",
				MinStock:      10,
				UserID:        1,
			},
			opening:  45,
			consumed: 12,
		},
		{
			product: entities.Product{
				Name:        "Dipyrone 500mg",
				Description: "Analgesic tablets, blister of 10",
				Category:    "medication",
				Barcode:     "7891000400505",
				MinStock:    15,
				UserID:      1,
			},
			opening:  60,
			consumed: 58,
		},
	}
}
