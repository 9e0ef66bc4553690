package advisor

import (
	"fmt"
	"strings"
)

// FallbackTreatment is the canned recommendation served when no model is
// configured or a generation attempt fails. It uses the same markdown subset
// as live replies so the transcript renderer handles both identically.
func FallbackTreatment(diseaseName string) string {
	disease := strings.ReplaceAll(diseaseName, "_", " ")
	return fmt.Sprintf(`# Treatment Recommendations for %s

## Description
This is a common plant disease that affects crops and ornamental plants.

## Symptoms
- Discoloration of leaves
- Spots or lesions
- Wilting or stunted growth

## Treatment
- Remove affected plant parts
- Apply appropriate fungicide or insecticide
- Ensure proper plant nutrition

## Prevention
- Rotate crops
- Use disease-resistant varieties
- Maintain good air circulation
- Water at the base of plants to keep foliage dry

*Note: These are general recommendations. For specific treatment, please consult with a local agricultural extension service.*`, disease)
}
