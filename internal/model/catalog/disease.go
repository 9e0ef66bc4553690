package catalog

import "strings"

// Disease is one entry of the PlantVillage class catalog the detector
// predicts over. ID is the raw class label; Name is the human-readable form
// used in prompts and chat replies.
type Disease struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Crop    string `json:"crop"`
	Healthy bool   `json:"healthy"`
}

// classLabels mirrors the detector's training classes. Order matters only for
// display; lookups go through Store.
var classLabels = []string{
	"Apple_Apple_scab", "Apple_Black_rot", "Apple_Cedar_apple_rust", "Apple_Healthy",
	"Background_without_leaves", "Blueberry_Healthy", "Cherry_Powdery_mildew", "Cherry_Healthy",
	"Corn_Cercospora_leaf_spot", "Corn_Common_rust", "Corn_Northern_Leaf_Blight", "Corn_Healthy",
	"Grape_Black_rot", "Grape_Esca", "Grape_Leaf_blight", "Grape_Healthy",
	"Orange_Haunglongbing", "Peach_Bacterial_spot", "Peach_Healthy",
	"Pepper_Bacterial_spot", "Pepper_Healthy", "Potato_Early_blight", "Potato_Late_blight", "Potato_Healthy",
	"Raspberry_Healthy", "Soybean_Healthy", "Squash_Powdery_mildew",
	"Strawberry_Leaf_scorch", "Strawberry_Healthy", "Tomato_Bacterial_spot", "Tomato_Early_blight",
	"Tomato_Late_blight", "Tomato_Leaf_Mold", "Tomato_Septoria_leaf_spot",
	"Tomato_Spider_mites", "Tomato_Target_Spot", "Tomato_Mosaic_virus", "Tomato_Yellow_Leaf_Curl_Virus", "Tomato_Healthy",
}

// Seed builds the default catalog from the class labels.
func Seed() []Disease {
	out := make([]Disease, 0, len(classLabels))
	for _, id := range classLabels {
		crop, _, _ := strings.Cut(id, "_")
		out = append(out, Disease{
			ID:      id,
			Name:    strings.ReplaceAll(id, "_", " "),
			Crop:    crop,
			Healthy: strings.Contains(id, "Healthy"),
		})
	}
	return out
}
