package seeds

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/actuallystonmai/venue-recommender/internal/geo"
	"github.com/actuallystonmai/venue-recommender/internal/logging"
	"github.com/jackc/pgx/v5/pgxpool"
)

type venueSeed struct {
	name        string
	cuisine     string
	description string
	price       string
	ambience    []string
	dishes      []string
	// region is a geo region name, "" for the city centre, or "-" for a
	// venue without coordinates.
	region string
}

var venueSeeds = []venueSeed{
	{"Zindiya", "Indian street food", "Lively sharing plates and craft beer", "££", []string{"lively"}, []string{"Chilli paneer", "Bhel puri", "Lamb keema"}, "Moseley"},
	{"Rosa's Thai", "Thai", "Busy cafe with a vegan menu", "££", []string{"casual"}, []string{"Pad thai", "Massaman curry"}, ""},
	{"Digbeth Dining Club", "Street food", "Open late at weekends, great for groups", "£", []string{"buzzing", "outdoor"}, []string{"Smash burger", "Loaded fries", "Jerk wings"}, "Digbeth"},
	{"Purnell's", "Modern British", "Romantic tasting menus", "£££", []string{"intimate"}, []string{"Haddock and egg", "Pineapple tart"}, ""},
	{"The Jam House", "British", "Live music and late night drinks", "££", []string{"lively"}, []string{"Fish and chips"}, "Jewellery Quarter"},
	{"Carters of Moseley", "Modern European", "Candlelit seasonal menu", "£££", []string{"intimate"}, []string{"Beef tartare", "Cheese course", "Rhubarb"}, "Moseley"},
	{"Original Patty Men", "Burgers", "Family friendly burger joint", "££", []string{"casual"}, []string{"Ballistic burger"}, "Digbeth"},
	{"Tropical Suya Spot", "Nigerian", "Spicy grills and halal meats", "£", []string{"casual"}, []string{"Beef suya", "Jollof rice", "Pepper soup"}, "Kings Heath"},
	{"Damascena", "Middle Eastern", "Brunch and coffee all day", "£", []string{"cosy"}, []string{"Shakshuka", "Halloumi wrap"}, "Moseley"},
	{"Harborne Kitchen", "Modern British", "Tasting menu with gluten-free options", "£££", []string{"relaxed"}, []string{"Duck", "Chocolate"}, "Harborne"},
	{"Bodega Cantina", "Latin American", "Colourful cantina for groups", "££", []string{"lively"}, []string{"Tacos", "Churros"}, ""},
	{"Edgbaston Tea Room", "Cafe", "Breakfast and brunch by the reservoir", "£", []string{"relaxed"}, []string{"Full English", "Scones"}, "Edgbaston"},
	{"Pho Bearwood", "Vietnamese", "Vegetarian friendly noodle bar", "£", []string{"casual"}, []string{"Pho bo", "Bun cha"}, "Bearwood"},
	{"Selly Sausage", "Cafe", "Student favourite for breakfast", "£", []string{"casual"}, []string{"Veggie breakfast"}, "Selly Oak"},
	{"Pop-up Ramen", "Japanese", "Rotating pop-up, location announced weekly", "££", []string{"casual"}, []string{"Tonkotsu ramen"}, "-"},
	{"Adam's", "Fine dining", "Special occasion tasting menu", "££££", []string{"elegant"}, []string{"Scallop", "Lamb"}, ""},
}

// Venues returns the seed venue set. The same seed always yields the same
// venues.
func Venues(seed int64) []domain.Candidate {
	rng := rand.New(rand.NewSource(seed))

	centres := make(map[string]domain.Coordinates)
	for _, r := range geo.Regions() {
		centres[r.Name] = r.Center
	}

	out := make([]domain.Candidate, 0, len(venueSeeds))
	for i, v := range venueSeeds {
		c := domain.Candidate{
			ID:              fmt.Sprintf("venue-%03d", i+1),
			Name:            v.name,
			Cuisine:         v.cuisine,
			Description:     v.description,
			PriceLevel:      v.price,
			Ambience:        v.ambience,
			SignatureDishes: v.dishes,
			IsOpen:          rng.Float64() < 0.75,
		}

		switch v.region {
		case "-":
		case "":
			c.Coordinates = jitter(rng, geo.DefaultCenter, 0.004)
		default:
			// stays well inside the region radius
			c.Coordinates = jitter(rng, centres[v.region], 0.002)
		}
		out = append(out, c)
	}
	return out
}

func jitter(rng *rand.Rand, c domain.Coordinates, spread float64) *domain.Coordinates {
	return &domain.Coordinates{
		Latitude:  c.Latitude + (rng.Float64()*2-1)*spread,
		Longitude: c.Longitude + (rng.Float64()*2-1)*spread,
	}
}

func Setup(ctx context.Context, pool *pgxpool.Pool) error {
	log := logging.With().Str("component", "seed").Logger()

	// Truncate existing data before insert
	log.Info().Msg("truncating existing venues")
	if _, err := pool.Exec(ctx, `TRUNCATE venues`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	venues := Venues(42)
	log.Info().Int("count", len(venues)).Msg("inserting venues")
	if err := insertVenues(ctx, pool, venues); err != nil {
		return fmt.Errorf("seed venues: %w", err)
	}

	log.Info().Msg("seeding complete")
	return nil
}

func insertVenues(ctx context.Context, pool *pgxpool.Pool, venues []domain.Candidate) error {
	const cols = 10
	rows := []string{}
	args := []any{}

	for i, v := range venues {
		base := i * cols
		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		rows = append(rows, "("+strings.Join(placeholders, ", ")+")")

		var lat, lon *float64
		if v.Coordinates != nil {
			lat, lon = &v.Coordinates.Latitude, &v.Coordinates.Longitude
		}
		args = append(args, v.ID, v.Name, v.Cuisine, v.Description, lat, lon,
			v.PriceLevel, v.Ambience, v.SignatureDishes, v.IsOpen)
	}

	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO venues (id, name, cuisine, description, latitude, longitude,
		price_level, ambience, signature_dishes, is_open) VALUES ` + strings.Join(rows, ", ")

	_, err := pool.Exec(ctx, query, args...)
	return err
}
