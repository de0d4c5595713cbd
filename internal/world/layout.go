// Default vineyard layout: areas, interaction points, homes, and the road
// graph connecting them.
package world

import (
	"fmt"
	"log/slog"

	"github.com/der-cain/npc-town/internal/geom"
)

// Area keys.
const (
	AreaVineyard = "vineyardArea"
	AreaWinery   = "wineryArea"
	AreaShop     = "shopArea"
)

// Point keys.
const (
	KeyFarmerHome     = "farmerHome"
	KeyWinemakerHome  = "winemakerHome"
	KeyShopkeeperHome = "shopkeeperHome"

	KeyFarmerHomeDoor     = "farmerHomeDoor"
	KeyWinemakerHomeDoor  = "winemakerHomeDoor"
	KeyShopkeeperHomeDoor = "shopkeeperHomeDoor"

	KeyRoadWest   = "roadWest"
	KeyRoadMid    = "roadMid"
	KeyRoadEast   = "roadEast"
	KeyRoadShop   = "roadShop"
	KeyCrossroads = "crossroads"
	KeyShopRoad   = "shopRoad"

	KeyFarmerWorkPos     = "farmerWorkPos"
	KeyWinemakerWorkPos  = "winemakerWorkPos"
	KeyShopkeeperWorkPos = "shopkeeperWorkPos"

	KeyWineryGrapeDropOff = "wineryGrapeDropOff"
	KeyWineryWinePickup   = "wineryWinePickup"
	KeyShopWineDropOff    = "shopWineDropOff"
	KeyShopDoor           = "shopDoor"

	KeyCustomerSpawn   = "customerSpawnPoint"
	KeyCustomerDespawn = "customerDespawnPoint"
)

// LayoutConfig holds the rectangles the rest of the layout is derived from.
type LayoutConfig struct {
	Vineyard geom.Rect
	Winery   geom.Rect
	Shop     geom.Rect

	HomeY       float64 // Row the three houses sit on
	HomeSpacing float64 // Horizontal gap between houses
}

// DefaultLayoutConfig returns the 800x600 scene the economy was tuned for.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Vineyard:    geom.Rect{X: 50, Y: 50, Width: 300, Height: 200},
		Winery:      geom.Rect{X: 400, Y: 50, Width: 150, Height: 100},
		Shop:        geom.Rect{X: 600, Y: 300, Width: 150, Height: 100},
		HomeY:       550,
		HomeSpacing: 100,
	}
}

// DefaultLayout builds the standard map.
func DefaultLayout(logger *slog.Logger) *Map {
	m, err := BuildLayout(DefaultLayoutConfig(), logger)
	if err != nil {
		// The default edges only reference nodes declared above.
		panic(err)
	}
	return m
}

// BuildLayout declares every area, point and road edge for cfg.
func BuildLayout(cfg LayoutConfig, logger *slog.Logger) (*Map, error) {
	m := NewMap(logger)

	m.AddArea(AreaVineyard, cfg.Vineyard)
	m.AddArea(AreaWinery, cfg.Winery)
	m.AddArea(AreaShop, cfg.Shop)

	v, w, s := cfg.Vineyard, cfg.Winery, cfg.Shop
	homeX := v.X + v.Width/2
	roadY := cfg.HomeY - 80

	// Houses are off-graph; their doors join the road.
	for i, h := range []struct{ home, door string }{
		{KeyFarmerHome, KeyFarmerHomeDoor},
		{KeyWinemakerHome, KeyWinemakerHomeDoor},
		{KeyShopkeeperHome, KeyShopkeeperHomeDoor},
	} {
		x := homeX + float64(i)*cfg.HomeSpacing
		m.AddNode(h.home, geom.Pt(x, cfg.HomeY), false)
		m.AddNode(h.door, geom.Pt(x, cfg.HomeY-30), true)
	}

	m.AddNode(KeyRoadWest, geom.Pt(homeX, roadY), true)
	m.AddNode(KeyRoadMid, geom.Pt(homeX+cfg.HomeSpacing, roadY), true)
	m.AddNode(KeyRoadEast, geom.Pt(homeX+2*cfg.HomeSpacing, roadY), true)
	m.AddNode(KeyRoadShop, geom.Pt(s.X-40, roadY), true)

	m.AddNode(KeyFarmerWorkPos, geom.Pt(v.X+v.Width/2, v.Y+v.Height+10), true)
	m.AddNode(KeyCrossroads, geom.Pt(w.X-20, v.Y+v.Height+10), true)
	m.AddNode(KeyShopRoad, geom.Pt(s.X-40, s.Y), true)

	m.AddNode(KeyWineryGrapeDropOff, geom.Pt(w.X+w.Width/2, w.Y+w.Height+10), true)
	m.AddNode(KeyWineryWinePickup, geom.Pt(w.X-10, w.Y+w.Height/2), true)
	m.AddNode(KeyWinemakerWorkPos, geom.Pt(w.X-10, w.Y+w.Height/2), true)

	m.AddNode(KeyShopWineDropOff, geom.Pt(s.X+s.Width/2, s.Y-10), true)
	m.AddNode(KeyShopDoor, geom.Pt(s.X-5, s.Y+s.Height/2), true)
	m.AddNode(KeyShopkeeperWorkPos, geom.Pt(s.X+s.Width/2, s.Y+s.Height/2), true)

	// Customers arrive from and leave towards the scene edge by a straight line.
	m.AddNode(KeyCustomerSpawn, geom.Pt(s.X+s.Width+40, cfg.HomeY+40), false)
	m.AddNode(KeyCustomerDespawn, geom.Pt(s.X+s.Width+40, s.Y-100), false)

	edges := [][2]string{
		{KeyFarmerHomeDoor, KeyRoadWest},
		{KeyWinemakerHomeDoor, KeyRoadMid},
		{KeyShopkeeperHomeDoor, KeyRoadEast},
		{KeyRoadWest, KeyRoadMid},
		{KeyRoadMid, KeyRoadEast},
		{KeyRoadEast, KeyRoadShop},
		{KeyRoadWest, KeyFarmerWorkPos},
		{KeyFarmerWorkPos, KeyCrossroads},
		{KeyRoadMid, KeyCrossroads},
		{KeyCrossroads, KeyWineryGrapeDropOff},
		{KeyCrossroads, KeyWineryWinePickup},
		{KeyWineryWinePickup, KeyWinemakerWorkPos},
		{KeyCrossroads, KeyShopRoad},
		{KeyRoadShop, KeyShopRoad},
		{KeyShopRoad, KeyShopWineDropOff},
		{KeyShopRoad, KeyShopDoor},
		{KeyShopDoor, KeyShopkeeperWorkPos},
	}
	for _, e := range edges {
		if err := m.Connect(e[0], e[1]); err != nil {
			return nil, fmt.Errorf("build layout: %w", err)
		}
	}

	m.logger.Debug("layout built", "map", m.String())
	return m, nil
}
