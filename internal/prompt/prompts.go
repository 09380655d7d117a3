package prompt

import "strings"

const actionGrammarEN = `## Action output format (must be followed exactly)

You must output exactly one of:

1. Launch an app
   do(action="Launch", app="app name")
2. Tap a coordinate (range 0-999)
   do(action="Tap", element=[x, y])
3. Type text
   do(action="Type", text="text to enter")
4. Swipe the screen
   do(action="Swipe", start=[x1, y1], end=[x2, y2])
5. Go back
   do(action="Back")
6. Go home
   do(action="Home")
7. Long press
   do(action="Long Press", element=[x, y])
8. Double tap
   do(action="Double Tap", element=[x, y])
9. Wait for loading
   do(action="Wait", duration="2 seconds")
10. Request a human takeover (login, captcha, etc.)
    do(action="Take_over", message="explain why")
11. Finish the task
    finish(message="what was accomplished")

## Coordinate system
- Top-left: (0, 0), bottom-right: (999, 999), center: (500, 500)

## Rules
1. Output exactly one action, never more than one
2. Coordinates are integers in 0-999
3. No explanation text — output only the action call
4. Never wrap the output in a markdown code block
5. A Tap/Double Tap/Long Press on a sensitive element (payment, login,
   deletion) should carry message="<reason>" to trigger confirmation`

const actionGrammarCN = `## 动作输出格式（必须严格遵守）

你必须且只能输出以下格式之一：

1. 启动应用
   do(action="Launch", app="应用名")
2. 点击坐标（范围 0-999）
   do(action="Tap", element=[x, y])
3. 输入文本
   do(action="Type", text="要输入的内容")
4. 滑动屏幕
   do(action="Swipe", start=[x1, y1], end=[x2, y2])
5. 返回上一页
   do(action="Back")
6. 回到主屏幕
   do(action="Home")
7. 长按
   do(action="Long Press", element=[x, y])
8. 双击
   do(action="Double Tap", element=[x, y])
9. 等待加载
   do(action="Wait", duration="2 seconds")
10. 请求用户接管（登录、验证码等）
    do(action="Take_over", message="说明原因")
11. 任务完成
    finish(message="完成说明")

## 坐标系统
- 左上角 (0, 0)，右下角 (999, 999)，屏幕中心 (500, 500)

## 规则
1. 只输出一个动作，不要输出多个
2. 坐标必须是整数，范围 0-999
3. 不要添加任何解释，只输出动作代码
4. 不要使用 markdown 代码块包裹
5. 涉及支付、登录、删除等敏感操作时，在 Tap/Double Tap/Long Press 中加入
   message="原因" 以触发确认`

// nativeSystemPrompt is sent as a system message in native mode, with the
// full grammar plus the reasoning/answer shape the parser expects.
func nativeSystemPrompt(lang Lang) string {
	grammar := actionGrammarEN
	intro := "You are a phone automation agent. Given a screenshot and a task, decide the single next action."
	outputShape := "Respond with <think>brief reasoning</think><answer>the action call</answer>."
	if lang == LangCN {
		grammar = actionGrammarCN
		intro = "你是一个手机自动化操控专家。根据屏幕截图和任务，判断下一步唯一的操作。"
		outputShape = "请按 <think>简短推理</think><answer>动作调用</answer> 的格式输出。"
	}
	return strings.Join([]string{intro, outputShape, grammar}, "\n\n")
}

// thirdPartySystemPrompt is folded into the first user message in
// third-party mode, since some gateways reject the system role. The
// thinking variant wraps the action in <think>/<answer> tags for models
// that benefit from a visible reasoning step; the plain variant asks for
// the bare action call.
func thirdPartySystemPrompt(thinking bool) string {
	intro := "You are a phone automation assistant. Look at the screenshot and output the next action."
	if !thinking {
		return strings.Join([]string{
			intro,
			actionGrammarEN,
			"Output only the action call, with no reasoning or explanation.",
		}, "\n\n")
	}
	return strings.Join([]string{
		intro,
		"Output format (must be followed exactly):\n<think>one short sentence on why this action</think>\n<answer>exactly one action call</answer>",
		actionGrammarEN,
	}, "\n\n")
}
