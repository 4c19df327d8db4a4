package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jaajung-kjs/kepco-survey/schema"
)

// reportKeywordsPerQuestion is how many keywords per text question go into the organization prompt.
const reportKeywordsPerQuestion = 10

// ReportSystemPrompt is the persona every report request is sent with.
const ReportSystemPrompt = "당신은 조직 문화 및 업무 성과 분석 전문가입니다. 데이터를 기반으로 객관적이고 건설적인 분석을 제공합니다."

// BuildDepartmentPrompt renders the department report request.
func BuildDepartmentPrompt(score schema.DepartmentScore, questions, peerQuestions []schema.QuestionScore) string {
	var b strings.Builder
	total := schema.DepartmentCount()

	fmt.Fprintf(&b, "다음은 %s의 조직 평가 결과입니다. 아래 데이터를 기반으로 종합 분석 보고서를 작성해주세요.\n\n", score.Department)

	b.WriteString("[평가유형별 상세 점수]\n")
	for _, s := range score.Scores {
		fmt.Fprintf(&b, "- %s: %.2f점 (%s)\n", s.Category, s.FinalScore, rankText(s.Rank, total))
	}

	b.WriteString("\n[본인 부서 문항별 상세 점수 - 점수 높은 순]\n")
	writeQuestionLines(&b, questions, total)

	if len(peerQuestions) > 0 {
		b.WriteString("\n[타부서가 평가한 문항별 상세 점수 - 점수 높은 순]\n")
		writeQuestionLines(&b, peerQuestions, total)
	}

	b.WriteString(`
**보고서 작성 형식:**
다음 5개 섹션으로 구성된 보고서를 작성해주세요.

1. 전반적인 평가 결과 요약
2. 두드러진 강점 영역과 그 의미
3. 개선이 필요한 영역과 배경
4. 데이터에서 발견되는 주요 패턴과 시사점
5. 결론

**작성 지침:**
- 각 섹션을 ## 제목으로 구분하여 작성하세요
- 점수와 순위 데이터를 구체적으로 인용하며 분석하세요
- 전문적이고 객관적인 톤을 유지하세요
- 마크다운 형식으로 가독성 있게 작성하세요
`)
	return b.String()
}

// BuildOrganizationPrompt renders the organization-wide report request.
// Questions nobody answered are left out of the score list.
func BuildOrganizationPrompt(scores []schema.CategoryScore, keywords []schema.QuestionKeywords) string {
	var b strings.Builder

	b.WriteString("다음은 관리처 전반에 대한 조직 평가 결과입니다. 아래 데이터를 기반으로 종합 분석 보고서를 작성해주세요.\n\n")

	b.WriteString("[평가유형별 평균 점수]\n")
	var questions []schema.QuestionScore
	for _, cs := range scores {
		fmt.Fprintf(&b, "- %s: %.2f점\n", cs.Category, cs.Average)
		for _, q := range cs.Questions {
			if q.Average > 0 {
				questions = append(questions, q)
			}
		}
	}

	b.WriteString("\n[세부 문항별 점수 - 점수 높은 순]\n")
	sortQuestionsByAverage(questions)
	for _, q := range questions {
		fmt.Fprintf(&b, "- %s: %.2f점\n", q.Text, q.Average)
	}

	if len(keywords) > 0 {
		b.WriteString("\n[서술형 응답 키워드 분석]\n")
		for i, qk := range keywords {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "Q%d. %s\n", qk.Question, qk.Text)
			for j, kw := range qk.Keywords {
				if j == reportKeywordsPerQuestion {
					break
				}
				fmt.Fprintf(&b, "  %d. %s (%d회)\n", j+1, kw.Keyword, kw.Count)
			}
		}
	}

	b.WriteString(`
**보고서 작성 형식:**
다음 6개 섹션으로 구성된 보고서를 작성해주세요.

1. 전반적인 평가 결과 요약
2. 두드러진 강점 영역과 그 의미
3. 개선이 필요한 영역과 배경
4. 서술형 응답 문항별 키워드 분석
   - 각 서술형 문항의 질문 의도를 파악하고, 해당 질문에 대한 전체적인 응답 경향을 분석
   - 키워드들을 개별적으로 설명하지 말고, 여러 키워드를 종합하여 질문에 대한 답변의 전반적인 의미를 해석
   - 빈도가 높은 키워드 그룹을 중심으로 주요 경향을 파악하고, 그것이 질문과 어떻게 연결되는지 설명
   - 문항 간 키워드 연관성이 있다면 함께 언급
5. 데이터에서 발견되는 주요 패턴과 시사점
6. 결론

**작성 지침:**
- 각 섹션을 ## 제목으로 구분하여 작성하세요
- 섹션 4에서는 각 서술형 문항을 ### 소제목으로 구분하여 작성하세요
- 점수 데이터와 키워드 데이터를 구체적으로 인용하며 분석하세요
- 여러 키워드를 묶어서 주요 테마나 경향을 도출하세요
- 전문적이고 객관적인 톤을 유지하세요
- 마크다운 형식으로 가독성 있게 작성하세요
`)
	return b.String()
}

func writeQuestionLines(b *strings.Builder, questions []schema.QuestionScore, total int) {
	sorted := append([]schema.QuestionScore(nil), questions...)
	sortQuestionsByAverage(sorted)
	for _, q := range sorted {
		fmt.Fprintf(b, "- %s: %.2f점 (%s)\n", q.Text, q.Average, rankText(q.Rank, total))
	}
}

// sortQuestionsByAverage orders by average descending, keeping question order on ties.
func sortQuestionsByAverage(questions []schema.QuestionScore) {
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Average > questions[j].Average
	})
}

func rankText(rank *int, total int) string {
	if rank == nil {
		return fmt.Sprintf("순위 없음/%d위", total)
	}
	return fmt.Sprintf("%d위/%d위", *rank, total)
}
