package crop

import "github.com/onnwee/cropadvisor/internal/recommend"

type bounds = recommend.Bounds

// DefaultRanges returns the built-in crop range dataset. Each call returns a
// fresh slice.
func DefaultRanges() []recommend.CropRange {
	return []recommend.CropRange{
		{CropName: "rice", Nitrogen: bounds{Min: 60, Max: 99}, Phosphorus: bounds{Min: 35, Max: 60}, Potassium: bounds{Min: 35, Max: 45}, PH: bounds{Min: 5.0, Max: 7.9}, Humidity: bounds{Min: 80, Max: 85}, Temperature: bounds{Min: 20, Max: 27}},
		{CropName: "maize", Nitrogen: bounds{Min: 60, Max: 100}, Phosphorus: bounds{Min: 35, Max: 60}, Potassium: bounds{Min: 15, Max: 25}, PH: bounds{Min: 5.5, Max: 7.0}, Humidity: bounds{Min: 55, Max: 75}, Temperature: bounds{Min: 18, Max: 27}},
		{CropName: "chickpea", Nitrogen: bounds{Min: 20, Max: 60}, Phosphorus: bounds{Min: 55, Max: 80}, Potassium: bounds{Min: 75, Max: 85}, PH: bounds{Min: 5.9, Max: 8.9}, Humidity: bounds{Min: 14, Max: 20}, Temperature: bounds{Min: 17, Max: 21}},
		{CropName: "kidneybeans", Nitrogen: bounds{Min: 0, Max: 40}, Phosphorus: bounds{Min: 55, Max: 80}, Potassium: bounds{Min: 15, Max: 25}, PH: bounds{Min: 5.5, Max: 6.0}, Humidity: bounds{Min: 18, Max: 25}, Temperature: bounds{Min: 15, Max: 25}},
		{CropName: "pigeonpeas", Nitrogen: bounds{Min: 0, Max: 40}, Phosphorus: bounds{Min: 55, Max: 80}, Potassium: bounds{Min: 15, Max: 25}, PH: bounds{Min: 4.5, Max: 7.5}, Humidity: bounds{Min: 30, Max: 70}, Temperature: bounds{Min: 18, Max: 37}},
		{CropName: "mungbean", Nitrogen: bounds{Min: 0, Max: 40}, Phosphorus: bounds{Min: 35, Max: 60}, Potassium: bounds{Min: 15, Max: 25}, PH: bounds{Min: 6.2, Max: 7.2}, Humidity: bounds{Min: 80, Max: 90}, Temperature: bounds{Min: 27, Max: 30}},
		{CropName: "lentil", Nitrogen: bounds{Min: 0, Max: 40}, Phosphorus: bounds{Min: 55, Max: 80}, Potassium: bounds{Min: 15, Max: 25}, PH: bounds{Min: 5.9, Max: 6.9}, Humidity: bounds{Min: 60, Max: 70}, Temperature: bounds{Min: 18, Max: 30}},
		{CropName: "banana", Nitrogen: bounds{Min: 80, Max: 120}, Phosphorus: bounds{Min: 70, Max: 95}, Potassium: bounds{Min: 45, Max: 55}, PH: bounds{Min: 5.5, Max: 6.5}, Humidity: bounds{Min: 75, Max: 85}, Temperature: bounds{Min: 25, Max: 30}},
		{CropName: "mango", Nitrogen: bounds{Min: 0, Max: 40}, Phosphorus: bounds{Min: 15, Max: 40}, Potassium: bounds{Min: 25, Max: 35}, PH: bounds{Min: 4.5, Max: 7.0}, Humidity: bounds{Min: 45, Max: 55}, Temperature: bounds{Min: 27, Max: 36}},
		{CropName: "grapes", Nitrogen: bounds{Min: 0, Max: 40}, Phosphorus: bounds{Min: 120, Max: 145}, Potassium: bounds{Min: 195, Max: 205}, PH: bounds{Min: 5.5, Max: 6.5}, Humidity: bounds{Min: 80, Max: 84}, Temperature: bounds{Min: 8, Max: 42}},
		{CropName: "watermelon", Nitrogen: bounds{Min: 80, Max: 120}, Phosphorus: bounds{Min: 5, Max: 30}, Potassium: bounds{Min: 45, Max: 55}, PH: bounds{Min: 6.0, Max: 7.0}, Humidity: bounds{Min: 80, Max: 90}, Temperature: bounds{Min: 24, Max: 27}},
		{CropName: "apple", Nitrogen: bounds{Min: 0, Max: 40}, Phosphorus: bounds{Min: 120, Max: 145}, Potassium: bounds{Min: 195, Max: 205}, PH: bounds{Min: 5.5, Max: 6.5}, Humidity: bounds{Min: 90, Max: 95}, Temperature: bounds{Min: 21, Max: 24}},
		{CropName: "orange", Nitrogen: bounds{Min: 0, Max: 40}, Phosphorus: bounds{Min: 5, Max: 30}, Potassium: bounds{Min: 5, Max: 15}, PH: bounds{Min: 6.0, Max: 8.0}, Humidity: bounds{Min: 90, Max: 95}, Temperature: bounds{Min: 10, Max: 35}},
		{CropName: "cotton", Nitrogen: bounds{Min: 100, Max: 140}, Phosphorus: bounds{Min: 35, Max: 60}, Potassium: bounds{Min: 15, Max: 25}, PH: bounds{Min: 5.8, Max: 8.0}, Humidity: bounds{Min: 75, Max: 85}, Temperature: bounds{Min: 22, Max: 26}},
		{CropName: "jute", Nitrogen: bounds{Min: 60, Max: 100}, Phosphorus: bounds{Min: 35, Max: 60}, Potassium: bounds{Min: 35, Max: 45}, PH: bounds{Min: 6.0, Max: 7.5}, Humidity: bounds{Min: 70, Max: 90}, Temperature: bounds{Min: 23, Max: 27}},
		{CropName: "coffee", Nitrogen: bounds{Min: 80, Max: 120}, Phosphorus: bounds{Min: 15, Max: 40}, Potassium: bounds{Min: 25, Max: 35}, PH: bounds{Min: 6.0, Max: 7.5}, Humidity: bounds{Min: 50, Max: 70}, Temperature: bounds{Min: 23, Max: 28}},
	}
}

// DefaultFertilizers returns the built-in fertilizer guidance.
func DefaultFertilizers() []*Fertilizer {
	return []*Fertilizer{
		{CropName: "rice", Fertilizer: "Urea, DAP, MOP", Soil: "Clayey, loamy", IdealPH: "5.0-7.9", IdealHumidity: "80-85%", NaturalFertilizerTips: "Incorporate green manure such as sesbania before transplanting; apply farmyard manure."},
		{CropName: "maize", Fertilizer: "Urea, SSP, MOP", Soil: "Well-drained loamy", IdealPH: "5.5-7.0", IdealHumidity: "55-75%", NaturalFertilizerTips: "Rotate with legumes and side-dress with compost at knee height."},
		{CropName: "chickpea", Fertilizer: "DAP, SSP", Soil: "Sandy loam", IdealPH: "5.9-8.9", IdealHumidity: "14-20%", NaturalFertilizerTips: "Inoculate seed with Rhizobium; add wood ash for potassium."},
		{CropName: "banana", Fertilizer: "Urea, MOP, SSP", Soil: "Deep, rich loamy", IdealPH: "5.5-6.5", IdealHumidity: "75-85%", NaturalFertilizerTips: "Mulch with crop residues and apply vermicompost every two months."},
		{CropName: "cotton", Fertilizer: "Urea, DAP, MOP", Soil: "Black cotton soil", IdealPH: "5.8-8.0", IdealHumidity: "75-85%", NaturalFertilizerTips: "Apply neem cake to supply nitrogen and deter pests."},
		{CropName: "coffee", Fertilizer: "NPK 17-17-17", Soil: "Well-drained volcanic loam", IdealPH: "6.0-7.5", IdealHumidity: "50-70%", NaturalFertilizerTips: "Return composted pulp to the field and maintain shade tree leaf litter."},
		{CropName: "apple", Fertilizer: "CAN, SSP, MOP", Soil: "Loamy, rich in organic matter", IdealPH: "5.5-6.5", IdealHumidity: "90-95%", NaturalFertilizerTips: "Apply well-rotted manure around the drip line in late winter."},
	}
}
