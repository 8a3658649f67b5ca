package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFuel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Híbrido enchufable", FuelPHEV},
		{"PHEV", FuelPHEV},
		{"Híbrido", FuelHEV},
		{"Hybrid (HEV)", FuelHEV},
		{"Eléctrico", FuelBEV},
		{"EV", FuelBEV},
		{"bev", FuelBEV},
		{"Diésel", FuelDiesel},
		{"Gasolina Premium", FuelPremium},
		{"gasolina", FuelMagna},
		{"Magna", FuelMagna},
		{"GNV", FuelOther},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeFuel(tt.in))
		})
	}
}

func TestPropulsionBucket(t *testing.T) {
	assert.Equal(t, PropulsionICE, PropulsionBucket("diesel"))
	assert.Equal(t, PropulsionICE, PropulsionBucket("gasolina premium"))
	assert.Equal(t, PropulsionICE, PropulsionBucket("nafta"))
	assert.Equal(t, PropulsionBEV, PropulsionBucket("bev"))
	assert.Equal(t, PropulsionHEV, PropulsionBucket("hev"))
	assert.Equal(t, PropulsionOther, PropulsionBucket(""))
	assert.True(t, IsElectrified("phev"))
	assert.False(t, IsElectrified("gasolina magna"))
}

func TestSegmentBucket(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pick-up", SegmentPickup},
		{"Doble Cabina", SegmentPickup},
		{"SUV", SegmentSUV},
		{"Crossover", SegmentSUV},
		{"Todo Terreno", SegmentSUV},
		{"Minivan", SegmentVan},
		{"Hatchback", SegmentHatch},
		{"Sedán", SegmentSedan},
		{"", SegmentSedan},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SegmentBucket(tt.in))
		})
	}
}

func TestDrivetrainClass(t *testing.T) {
	tests := []struct {
		drive   string
		segment string
		want    string
	}{
		{"4x4", SegmentPickup, DriveAWD},
		{"AWD", SegmentSUV, DriveAWD},
		{"Tracción trasera", SegmentSedan, DriveRWD},
		{"FWD", SegmentSUV, DriveFWD},
		{"4x2", SegmentPickup, DriveRWD},
		{"4X2 Tracción delantera", SegmentPickup, DriveFWD},
		{"4x2", SegmentSUV, DriveFWD},
		{"", SegmentPickup, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DrivetrainClass(tt.drive, tt.segment), "%s/%s", tt.drive, tt.segment)
	}
}

func TestRowAccessors(t *testing.T) {
	r := NewRow()
	r.SetStr(ColMake, "  ")
	assert.True(t, r.Missing(ColMake))

	r.SetNum(ColYear, 2025)
	y, ok := r.Year()
	assert.True(t, ok)
	assert.Equal(t, 2025, y)

	r.Set(ColMSRP, Number(0))
	assert.False(t, r.Missing(ColMSRP))

	r.Set(ColMSRP, Absent())
	_, ok = r.Num(ColMSRP)
	assert.False(t, ok)

	c := r.Clone()
	c.SetStr(ColModel, "Rio")
	assert.True(t, r.Missing(ColModel))
	assert.Equal(t, []string{ColYear}, r.Columns())
}
