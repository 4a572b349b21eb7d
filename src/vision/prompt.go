package vision

// analysisPrompt 固定的分析提示词，约定模型返回的JSON结构
const analysisPrompt = `
Analyze this meal image and provide detailed nutritional information in JSON format. Include:
1. Meal identification (in English only)
2. Accurate calorie estimation
3. Detailed macro breakdown (in grams)
4. List of ingredients with estimated weights (in English only)
5. Detailed ingredients with individual nutrition per ingredient
6. A categorical healthiness value (e.g., 'healthy', 'medium', 'unhealthy')
7. Detailed health assessment text
8. Source URL for more information

Format the response as:
{
  'mealName': 'Meal name in English',
  'estimatedCalories': number (e.g., 670),
  'macros': {
    'proteins': 'Xg (e.g., 30g)',
    'carbohydrates': 'Xg (e.g., 50g)',
    'fats': 'Xg (e.g., 40g)'
  },
  'ingredients': ['ingredient1', 'ingredient2', 'ingredient3'],
  'detailedIngredients': [
    {
      'name': 'Ingredient name in English',
      'grams': estimated_weight_in_grams,
      'calories': calories_for_this_ingredient,
      'proteins': proteins_in_grams,
      'carbs': carbs_in_grams,
      'fats': fats_in_grams
    }
  ],
  'healthiness': 'healthy' | 'medium' | 'unhealthy' | 'N/A',
  'health_assessment': 'Detailed health assessment of the meal',
  'source': 'A valid URL (starting with http or https) for more information about this meal'
}

Important:
- Provide realistic calorie and macro values based on visible portions.
- Ensure 'estimatedCalories' is a number.
- Ensure macros (proteins, carbohydrates, fats) are strings ending with 'g'.
- For detailedIngredients, estimate the weight of each visible ingredient in grams.
- Calculate individual nutrition values for each ingredient based on typical nutrition data.
- The sum of all ingredient calories should approximately match estimatedCalories.
- The sum of all ingredient macros should approximately match the main macros.
- The 'healthiness' field should be one of 'healthy', 'medium', 'unhealthy', or 'N/A'.
- Provide a comprehensive 'health_assessment' string.
- The source field MUST be a valid URL, defaulting to https://fdc.nal.usda.gov/ if needed.
- All responses should be in English only - translation will be handled client-side.
- Be as accurate as possible with ingredient weights and nutrition values.
`
