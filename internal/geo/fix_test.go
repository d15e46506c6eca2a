package geo

import (
	"testing"
	"time"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantOK   bool
		wantErr  bool
		lat, lng float64
		accuracy float64
	}{
		{name: "blank", line: "   ", wantOK: false},
		{name: "plain", line: `{"lat":51.5,"lng":-0.12,"accuracy":14,"time":"2025-03-04T10:00:00Z"}`, wantOK: true, lat: 51.5, lng: -0.12, accuracy: 14},
		{name: "gpsd tpv", line: `{"class":"TPV","mode":3,"lat":48.85,"lon":2.35,"epx":7.5,"epy":9.25}`, wantOK: true, lat: 48.85, lng: 2.35, accuracy: 9.25},
		{name: "gpsd sky", line: `{"class":"SKY","satellites":[]}`, wantOK: false},
		{name: "tpv without fix", line: `{"class":"TPV","mode":1}`, wantOK: false},
		{name: "malformed", line: `{"lat":`, wantOK: true, wantErr: true},
		{name: "out of range", line: `{"lat":91,"lng":0}`, wantOK: true, wantErr: true},
		{name: "error record", line: `{"error":"permission denied"}`, wantOK: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading, ok := ParseLine([]byte(tt.line))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if (reading.Err != nil) != tt.wantErr {
				t.Fatalf("Err = %v, wantErr %v", reading.Err, tt.wantErr)
			}
			if !ok || tt.wantErr {
				return
			}
			if reading.Fix.Lat != tt.lat || reading.Fix.Lng != tt.lng || reading.Fix.Accuracy != tt.accuracy {
				t.Fatalf("Fix = %+v, want lat=%v lng=%v acc=%v", reading.Fix, tt.lat, tt.lng, tt.accuracy)
			}
			if reading.Fix.At.IsZero() {
				t.Fatal("Fix.At should be set")
			}
		})
	}
}

func TestParseLine_UsesFeedTime(t *testing.T) {
	reading, ok := ParseLine([]byte(`{"lat":1,"lng":2,"time":"2025-03-04T10:00:00.5Z"}`))
	if !ok || reading.Err != nil {
		t.Fatalf("ParseLine = %+v, %v", reading, ok)
	}
	want := time.Date(2025, 3, 4, 10, 0, 0, 500_000_000, time.UTC)
	if !reading.Fix.At.Equal(want) {
		t.Fatalf("At = %v, want %v", reading.Fix.At, want)
	}
}
