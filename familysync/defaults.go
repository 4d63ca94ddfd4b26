package familysync

// Starter catalog seeded for a brand-new family.

func DefaultTasks() []Task {
	return []Task{
		// Life habits
		{ID: "t1", Category: TaskCategoryLife, Title: "按时起床", Stars: 2},
		{ID: "t2", Category: TaskCategoryLife, Title: "自己穿衣服、叠被子", Stars: 2},
		{ID: "t3", Category: TaskCategoryLife, Title: "按时上床睡觉", Stars: 2},
		{ID: "t4", Category: TaskCategoryLife, Title: "每天上幼儿园不缺勤", Stars: 2},
		{ID: "t5", Category: TaskCategoryLife, Title: "不挑食、不剩饭", Stars: 2},
		{ID: "t6", Category: TaskCategoryLife, Title: "不用提醒自己喝水", Stars: 2},
		{ID: "t7", Category: TaskCategoryLife, Title: "玩具玩完自己收拾", Stars: 2},
		{ID: "t8", Category: TaskCategoryLife, Title: "爱护玩具、书本", Stars: 2},

		// Behavioral habits
		{ID: "t9", Category: TaskCategoryBehavior, Title: "每天坚持运动30分钟", Stars: 2},
		{ID: "t10", Category: TaskCategoryBehavior, Title: "每天阅读至少30分钟", Stars: 2},
		{ID: "t11", Category: TaskCategoryBehavior, Title: "学会1首新的古诗/儿歌", Stars: 2},
		{ID: "t12", Category: TaskCategoryBehavior, Title: "能用数学方法解决问题", Stars: 2},
		{ID: "t13", Category: TaskCategoryBehavior, Title: "遇到问题好好说话", Stars: 2},
		{ID: "t14", Category: TaskCategoryBehavior, Title: "遇到困难不退缩", Stars: 2},

		// Bonus
		{ID: "t15", Category: TaskCategoryBonus, Title: "主动做家务", Stars: 5},
		{ID: "t16", Category: TaskCategoryBonus, Title: "得到老师/小朋友表扬", Stars: 5},
		{ID: "t17", Category: TaskCategoryBonus, Title: "讲一个很长的故事", Stars: 5},
		{ID: "t18", Category: TaskCategoryBonus, Title: "犯错了主动承认改正", Stars: 5},

		// Penalty
		{ID: "t19", Category: TaskCategoryPenalty, Title: "上学迟到", Stars: -5},
		{ID: "t20", Category: TaskCategoryPenalty, Title: "不听老师的话", Stars: -5},
		{ID: "t21", Category: TaskCategoryPenalty, Title: "说谎、打人、咬人", Stars: -5},
		{ID: "t22", Category: TaskCategoryPenalty, Title: "长时间玩手机/看电视", Stars: -5},
	}
}

func DefaultRewards() []Reward {
	return []Reward{
		{ID: "r1", Title: "看动画片 20分钟", Cost: 30, Icon: "📺"},
		{ID: "r2", Title: "吃一个冰淇淋", Cost: 50, Icon: "🍦"},
		{ID: "r3", Title: "去公园玩", Cost: 80, Icon: "🎡"},
		{ID: "r4", Title: "买一个小玩具", Cost: 200, Icon: "🧸"},
		{ID: "r5", Title: "免做家务一次", Cost: 40, Icon: "🧹"},
	}
}
