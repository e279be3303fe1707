package orchestrator

import "fmt"

// analysisPromptTemplate asks the model for the three career paths as
// strict JSON. The wording is fixed; results are only comparable
// across runs if every job uses the same instructions.
const analysisPromptTemplate = `あなたはキャリアアドバイザーAIです。以下の%sを分析し、キャリアパスの提案を行ってください。

分析する内容:
1. スキルと経験の抽出
2. 3つのキャリアパス提案（企業転職、フリーランス、起業）
3. 各パスに必要なスキルと、既存スキルとのマッチ度計算
4. 各パスに必要なスキルギャップ
5. 推定年収レンジ（日本市場）
6. 具体的な次のステップ

重要: skill_match_percentageは、候補者の現在のスキルが各キャリアパスに必要なスキルとどの程度マッチしているかを0-100の整数で必ず計算してください。

以下の形式の厳密なJSONのみを出力してください（JSON以外の解説文、マークダウン、` + "```" + ` などを絶対に含めないでください）:

{
  "extracted_skills": ["スキル1", "スキル2", ...],
  "experience_summary": "経験の要約",
  "career_paths": [
    {
      "type": "corporate",
      "title": "職種名",
      "description": "説明",
      "required_skills": ["必要スキル1", ...],
      "skill_match_percentage": スキルマッチ度(0-100の整数),
      "skill_gaps": ["不足スキル1", ...],
      "salary_range": {
        "min": 最低年収(整数),
        "max": 最高年収(整数)
      },
      "market_demand": "high/medium/low",
      "confidence_score": 0.0-1.0の小数,
      "next_steps": ["ステップ1", ...]
    },
    {
      "type": "freelance",
      ...同様の構造
    },
    {
      "type": "entrepreneurship",
      ...同様の構造
    }
  ],
  "overall_insights": "全体的な洞察"
}

%sの内容:
"""
%s
"""`

// buildAnalysisPrompt fills the template for the given document type.
// Everything that is not a 履歴書 is analyzed as a 職務経歴書.
func buildAnalysisPrompt(resumeText, documentType string) string {
	docTypeName := "職務経歴書"
	if documentType == "resume" {
		docTypeName = "履歴書"
	}
	return fmt.Sprintf(analysisPromptTemplate, docTypeName, docTypeName, resumeText)
}
