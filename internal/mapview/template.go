package mapview

import (
	"encoding/json"
	"html/template"
)

type pageTileLayer struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Visible bool   `json:"visible"`
}

type pageVectorLayer struct {
	Name    string          `json:"name"`
	GeoJSON json.RawMessage `json:"geojson"`
}

type pageSlider struct {
	Frames     []Frame `json:"frames"`
	IntervalMs int64   `json:"intervalMs"`
}

type pageColorbar struct {
	Label string
	Image template.URL
}

type pageData struct {
	Title        string
	Lat          float64
	Lon          float64
	Zoom         int
	TileLayers   []pageTileLayer
	VectorLayers []pageVectorLayer
	LayerControl bool
	Slider       *pageSlider
	Colorbar     *pageColorbar
}

func (m *Map) page() pageData {
	data := pageData{
		Title:        m.Title,
		Lat:          m.Center.Lat(),
		Lon:          m.Center.Lon(),
		Zoom:         m.Zoom,
		TileLayers:   []pageTileLayer{},
		VectorLayers: []pageVectorLayer{},
		LayerControl: m.layerControl,
	}
	for _, l := range m.tileLayers {
		data.TileLayers = append(data.TileLayers, pageTileLayer{Name: l.Name, URL: l.URL, Visible: l.Visible})
	}
	for _, l := range m.vectorLayers {
		data.VectorLayers = append(data.VectorLayers, pageVectorLayer{Name: l.Name, GeoJSON: l.GeoJSON})
	}
	if m.slider != nil {
		data.Slider = &pageSlider{Frames: m.slider.Frames, IntervalMs: m.slider.Interval.Milliseconds()}
	}
	if m.colorbar != nil {
		// The PNG is produced locally, so the data URI is trusted.
		data.Colorbar = &pageColorbar{Label: m.colorbar.Label, Image: template.URL(m.colorbar.DataURI())}
	}
	return data
}

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
html, body, #map { height: 100%; margin: 0; }
.panel { background: rgba(255,255,255,0.9); padding: 6px 8px; border-radius: 4px; font: 12px sans-serif; }
.panel img { display: block; }
#slider-label { display: inline-block; min-width: 110px; font-weight: bold; }
</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.Lat}}, {{.Lon}}], {{.Zoom}});
var basemap = L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
  maxZoom: 19,
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
var overlays = {};

var vectorLayers = {{.VectorLayers}};
vectorLayers.forEach(function (l) {
  overlays[l.name] = L.geoJSON(l.geojson, { style: { color: '#0000ff', weight: 2, fill: false } }).addTo(map);
});

var tileLayers = {{.TileLayers}};
tileLayers.forEach(function (l) {
  var layer = L.tileLayer(l.url, { maxZoom: 19, attribution: 'Google Earth Engine' });
  if (l.visible) { layer.addTo(map); }
  overlays[l.name] = layer;
});
{{if .Slider}}
var slider = {{.Slider}};
var frameLayer = L.tileLayer(slider.frames[0].url, { maxZoom: 19 }).addTo(map);
overlays['Time slider'] = frameLayer;
var SliderControl = L.Control.extend({
  options: { position: 'bottomleft' },
  onAdd: function () {
    var div = L.DomUtil.create('div', 'panel');
    div.innerHTML = '<button id="slider-play">&#9654;</button> ' +
      '<input id="slider-range" type="range" min="0" max="' + (slider.frames.length - 1) + '" value="0"> ' +
      '<span id="slider-label"></span>';
    L.DomEvent.disableClickPropagation(div);
    return div;
  }
});
map.addControl(new SliderControl());
var current = 0, timer = null;
function show(i) {
  current = i;
  frameLayer.setUrl(slider.frames[i].url);
  document.getElementById('slider-range').value = i;
  document.getElementById('slider-label').textContent = slider.frames[i].label;
}
document.getElementById('slider-range').addEventListener('input', function (e) {
  show(parseInt(e.target.value, 10));
});
document.getElementById('slider-play').addEventListener('click', function (e) {
  if (timer) {
    clearInterval(timer);
    timer = null;
    e.target.innerHTML = '&#9654;';
    return;
  }
  e.target.innerHTML = '&#10074;&#10074;';
  timer = setInterval(function () { show((current + 1) % slider.frames.length); }, slider.intervalMs);
});
show(0);
{{end}}
{{if .LayerControl}}
L.control.layers({ 'OpenStreetMap': basemap }, overlays).addTo(map);
{{end}}
{{if .Colorbar}}
var ColorbarControl = L.Control.extend({
  options: { position: 'bottomright' },
  onAdd: function () {
    var div = L.DomUtil.create('div', 'panel');
    div.innerHTML = document.getElementById('colorbar-template').innerHTML;
    return div;
  }
});
map.addControl(new ColorbarControl());
{{end}}
</script>
{{if .Colorbar}}
<template id="colorbar-template">
<div>{{.Colorbar.Label}}</div>
<img src="{{.Colorbar.Image}}" alt="{{.Colorbar.Label}}">
</template>
{{end}}
</body>
</html>
`))
